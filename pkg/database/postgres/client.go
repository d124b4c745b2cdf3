package pg

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/external"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/rdsutils"
	"github.com/pkg/errors"

	_ "github.com/newrelic/go-agent/v3/integrations/nrpgx"
)

type Config struct {
	User               string `mapstructure:"user"`
	Host               string `mapstructure:"host"`
	Password           string `mapstructure:"password"`
	Port               int    `mapstructure:"port"`
	DbName             string `mapstructure:"db_name"`
	MaxOpenConnections int    `mapstructure:"max_open_connections"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections"`

	// UseAwsIam authenticates with an RDS IAM token instead of Password
	UseAwsIam bool `mapstructure:"use_aws_iam"`
}

func (c *Config) Validate() error {
	if len(c.User) == 0 {
		return errors.New("user is required")
	}

	if len(c.Host) == 0 {
		return errors.New("host is required")
	}

	if c.Port <= 0 {
		return errors.New("port must be positive")
	}

	if len(c.DbName) == 0 {
		return errors.New("db name is required")
	}

	if !c.UseAwsIam && len(c.Password) == 0 {
		return errors.New("password is required without aws iam")
	}

	return nil
}

// Open returns a tuned connection pool for the provided config.
func Open(c *Config) (*sql.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid postgres config")
	}

	var db *sql.DB
	var err error
	if c.UseAwsIam {
		var awsConfig aws.Config
		awsConfig, err = external.LoadDefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "error loading aws config")
		}

		db, err = NewWithAwsIam(c.User, c.Host, fmt.Sprint(c.Port), c.DbName, awsConfig)
	} else {
		db, err = NewWithUsernameAndPassword(c.User, c.Password, c.Host, fmt.Sprint(c.Port), c.DbName)
	}
	if err != nil {
		return nil, err
	}

	if c.MaxOpenConnections > 0 {
		db.SetMaxOpenConns(c.MaxOpenConnections)
	}
	if c.MaxIdleConnections > 0 {
		db.SetMaxIdleConns(c.MaxIdleConnections)
	}
	db.SetConnMaxIdleTime(time.Hour)
	db.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Get a DB connection pool using AWS IAM credentials
//
// https://docs.aws.amazon.com/AmazonRDS/latest/AuroraUserGuide/UsingWithRDS.IAMDBAuth.Connecting.Go.html
func NewWithAwsIam(username, hostname, port, dbname string, config aws.Config) (*sql.DB, error) {
	// Only supported on provisioned Aurora RDS clusters
	rdsClient := rds.New(config)

	endpoint := fmt.Sprintf("%s:%s", hostname, port)
	authToken, err := rdsutils.BuildAuthToken(endpoint, rdsClient.Region, username, rdsClient.Credentials)
	if err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		hostname, port, username, authToken, dbname,
	)
	return openAndPing(dsn)
}

// Get a DB connection pool using username/password credentials
func NewWithUsernameAndPassword(username, password, hostname, port, dbname string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		username, password, hostname, port, dbname,
	)
	return openAndPing(dsn)
}

func openAndPing(dsn string) (*sql.DB, error) {
	// nrpgx wraps the pgx driver so queries show up as New Relic datastore segments
	db, err := sql.Open("nrpgx", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

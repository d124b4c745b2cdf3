package metrics

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"
)

// NewRelicLogFormatter wraps a logrus.Formatter and forwards every entry to
// New Relic, fields included. The entry is attributed to the transaction in
// its context when there is one, and to the application otherwise.
type NewRelicLogFormatter struct {
	app       *newrelic.Application
	formatter logrus.Formatter
}

func NewNewRelicLogFormatter(app *newrelic.Application, formatter logrus.Formatter) *NewRelicLogFormatter {
	return &NewRelicLogFormatter{
		app:       app,
		formatter: formatter,
	}
}

// Format implements logrus.Formatter.Format
func (f *NewRelicLogFormatter) Format(e *logrus.Entry) ([]byte, error) {
	formatted, err := f.formatter.Format(e)
	if err != nil {
		return nil, err
	}
	b := bytes.NewBuffer(bytes.TrimRight(formatted, "\n"))

	logData := newrelic.LogData{
		Severity: e.Level.String(),
		Message:  newRelicMessage(e),
	}

	var txn *newrelic.Transaction
	if e.Context != nil {
		txn = newrelic.FromContext(e.Context)
	}

	if txn != nil {
		txn.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromTxn(txn))
	} else {
		f.app.RecordLog(logData)
		err = newrelic.EnrichLog(b, newrelic.FromApp(f.app))
	}
	if err != nil {
		return nil, err
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// newRelicMessage folds the entry's fields into its message, since New Relic
// log data only carries a message.
func newRelicMessage(e *logrus.Entry) string {
	if len(e.Data) == 0 {
		return e.Message
	}

	errorString := "<nil>"
	data := make(map[string]interface{}, len(e.Data))
	for k, v := range e.Data {
		if k != logrus.ErrorKey {
			data[k] = v
			continue
		}

		if err, ok := v.(error); ok {
			errorString = fmt.Sprintf("%q", err.Error())
		}
	}

	encoded, err := json.Marshal(data)
	if err != nil {
		return e.Message
	}
	return fmt.Sprintf("message=%q, error=%s, data=%s", e.Message, errorString, encoded)
}

package program

import (
	"bytes"
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	"github.com/code-payments/staking-server/pkg/staking/state"
)

// CreateSubmission records a loudness reading by owner at a venue, creating
// the venue on first use. Each submission is worth the configured points per
// stake, and an owner holds at most one submission per venue.
func (p *Program) CreateSubmission(ctx context.Context, owner *common.Account, venueName string, decibels uint16) (uuid.UUID, error) {
	return p.execute(ctx, "CreateSubmission", logrus.Fields{
		"owner":    owner.PublicKey().ToBase58(),
		"venue":    venueName,
		"decibels": decibels,
	}, func(ctx context.Context, tx ledger.Tx) error {
		_, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		userRecord, user, err := p.loadUser(ctx, tx, owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		venueAddress, err := p.venueAddress(venueName)
		if err != nil {
			return err
		}

		var venue state.VenueAccount
		venueRecord, err := p.load(ctx, tx, venueAddress.PublicKey(), &venue)
		switch err {
		case nil:
		case ledger.ErrAccountNotFound:
			venue = state.VenueAccount{
				Name: venueName,
				Bump: venueAddress.Bump,
			}
			data, err := venue.Marshal()
			if err != nil {
				return err
			}
			if venueRecord, err = p.create(ctx, tx, user.Owner, venueAddress, data); err != nil {
				return err
			}
		default:
			return err
		}

		submissionAddress, err := p.submissionAddress(venueAddress.PublicKey(), user.Owner)
		if err != nil {
			return err
		}

		submission := &state.SubmissionAccount{
			Owner:     user.Owner,
			Venue:     venueAddress.PublicKey(),
			Decibels:  decibels,
			Timestamp: p.clock().Unix(),
			Bump:      submissionAddress.Bump,
		}
		if _, err := p.create(ctx, tx, submission.Owner, submissionAddress, submission.Marshal()); err != nil {
			return err
		}

		venue.SubmissionCount = state.SaturatingAdd(venue.SubmissionCount, 1)
		venueData, err := venue.Marshal()
		if err != nil {
			return err
		}
		if err := p.save(ctx, tx, venueRecord, venueData); err != nil {
			return err
		}

		user.NumOfSubmissions = state.SaturatingAdd(user.NumOfSubmissions, 1)
		user.Points = state.SaturatingAdd(user.Points, uint32(config.PointsPerStake))
		return p.save(ctx, tx, userRecord, user.Marshal())
	})
}

// CloseSubmission erases owner's submission at a venue and takes back the
// points it granted.
func (p *Program) CloseSubmission(ctx context.Context, owner *common.Account, venueName string) (uuid.UUID, error) {
	return p.execute(ctx, "CloseSubmission", logrus.Fields{
		"owner": owner.PublicKey().ToBase58(),
		"venue": venueName,
	}, func(ctx context.Context, tx ledger.Tx) error {
		_, _, config, err := p.loadConfig(ctx, tx)
		if err != nil {
			return err
		}

		venueAddress, err := p.venueAddress(venueName)
		if err != nil {
			return err
		}

		var venue state.VenueAccount
		venueRecord, err := p.load(ctx, tx, venueAddress.PublicKey(), &venue)
		if err != nil {
			return err
		}

		submissionAddress, err := p.submissionAddress(venueAddress.PublicKey(), owner.PublicKey().ToBytes())
		if err != nil {
			return err
		}

		var submission state.SubmissionAccount
		if _, err := p.load(ctx, tx, submissionAddress.PublicKey(), &submission); err != nil {
			return err
		}

		if !bytes.Equal(submission.Owner, owner.PublicKey().ToBytes()) {
			return ErrUnauthorized
		}

		userRecord, user, err := p.loadUser(ctx, tx, submission.Owner)
		if err != nil {
			return err
		}

		if err := p.close(ctx, tx, submissionAddress.PublicKey(), submission.Owner); err != nil {
			return err
		}

		venue.SubmissionCount = state.SaturatingSub(venue.SubmissionCount, 1)
		venueData, err := venue.Marshal()
		if err != nil {
			return err
		}
		if err := p.save(ctx, tx, venueRecord, venueData); err != nil {
			return err
		}

		user.NumOfSubmissions = state.SaturatingSub(user.NumOfSubmissions, 1)
		user.Points = state.SaturatingSub(user.Points, uint32(config.PointsPerStake))
		return p.save(ctx, tx, userRecord, user.Marshal())
	})
}

// GetVenue reads the committed venue record.
func (p *Program) GetVenue(ctx context.Context, venueName string) (*state.VenueAccount, error) {
	address, err := p.venueAddress(venueName)
	if err != nil {
		return nil, err
	}

	var venue state.VenueAccount
	if _, err := p.load(ctx, p.ledger, address.PublicKey(), &venue); err != nil {
		return nil, err
	}
	return &venue, nil
}

// GetSubmission reads owner's committed submission at a venue.
func (p *Program) GetSubmission(ctx context.Context, venueName string, owner *common.Account) (*state.SubmissionAccount, error) {
	venueAddress, err := p.venueAddress(venueName)
	if err != nil {
		return nil, err
	}

	address, err := p.submissionAddress(venueAddress.PublicKey(), owner.PublicKey().ToBytes())
	if err != nil {
		return nil, err
	}

	var submission state.SubmissionAccount
	if _, err := p.load(ctx, p.ledger, address.PublicKey(), &submission); err != nil {
		return nil, err
	}
	return &submission, nil
}

package server

import (
	"context"

	"github.com/code-payments/staking-server/pkg/staking/api"
)

// Enough to rent a user account, several stake records and NFTs
const airdropLamports = 1_000_000_000

func (s *server) Airdrop(ctx context.Context, req *api.AirdropRequest) (*api.AirdropResponse, error) {
	log := s.log.WithField("method", "Airdrop")

	if !s.conf.enableAirdrops.Get(ctx) {
		return nil, s.handleError(log, ErrAirdropsDisabled)
	}

	wallet, err := s.authenticate(ctx, api.AirdropMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(wallet)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("wallet", wallet.PublicKey().ToBase58())

	id, err := s.program.Airdrop(ctx, wallet, airdropLamports)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	log.WithField("lamports", airdropLamports).Info("airdropped lamports")
	return &api.AirdropResponse{
		Transaction: toTransaction(id),
		Lamports:    airdropLamports,
	}, nil
}

func (s *server) MintNft(ctx context.Context, req *api.MintNftRequest) (*api.MintNftResponse, error) {
	log := s.log.WithField("method", "MintNft")

	if !s.conf.enableAirdrops.Get(ctx) {
		return nil, s.handleError(log, ErrAirdropsDisabled)
	}

	owner, err := s.authenticate(ctx, api.MintNftMethod, req)
	if err != nil {
		return nil, err
	}

	release, err := s.admit(owner)
	if err != nil {
		return nil, err
	}
	defer release()
	log = log.WithField("owner", owner.PublicKey().ToBase58())

	mint, id, err := s.program.MintNft(ctx, owner)
	if err != nil {
		return nil, s.handleError(log, err)
	}

	log.WithField("mint", mint.PublicKey().ToBase58()).Info("minted nft")
	return &api.MintNftResponse{
		Transaction: toTransaction(id),
		Mint:        mint.PublicKey().ToBase58(),
	}, nil
}

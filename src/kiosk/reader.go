package kiosk

import (
	"context"
	"fmt"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/logger"
	"github.com/sonar-protocol/kiosk-syncer/src/utils/sui"

	"github.com/sirupsen/logrus"
)

// Source of on-chain objects. Implemented by sui.Client
type ChainReader interface {
	GetSharedObject(ctx context.Context, id string) (*sui.ObjectData, error)
}

// Reads the marketplace object and turns it into a snapshot
type Reader struct {
	config *config.Config
	log    *logrus.Entry
	chain  ChainReader
}

func NewReader(config *config.Config, chain ChainReader) (self *Reader) {
	self = new(Reader)
	self.config = config
	self.chain = chain
	self.log = logger.NewSublogger("kiosk-reader")
	return
}

// Every failure wraps ErrChainUnavailable
func (self *Reader) FetchMarketplaceSnapshot(ctx context.Context) (out *Snapshot, err error) {
	id := self.config.Kiosk.MarketplaceId

	object, err := self.chain.GetSharedObject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainUnavailable, err)
	}

	if object == nil || object.Content == nil {
		return nil, fmt.Errorf("%w: object %s has no content", ErrChainUnavailable, id)
	}

	if object.Content.DataType != sui.DataTypeMoveObject {
		return nil, fmt.Errorf("%w: object %s is a %s", ErrChainUnavailable, id, object.Content.DataType)
	}

	out, err = NormalizeMarketplace(object.Content.Fields)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrChainUnavailable, err)
	}

	self.log.WithField("id", id).
		WithField("version", object.Version).
		WithField("price", out.CurrentPrice).
		WithField("tier", out.CurrentTier).
		Debug("Fetched marketplace snapshot")

	return
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package main

import (
	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/prefixdb"
	"github.com/luxfi/log"

	"github.com/luxfi/bmv/vms/bmv"
	"github.com/luxfi/bmv/vms/bmv/metrics"
)

// link is a verifier opened on the on-disk database of the CLI.
type link struct {
	db       database.Database
	verifier *bmv.Verifier
}

// openLink opens the database at [config.DBDir] and scopes the verifier to the
// [config.Link] namespace, so that one directory can hold several links.
func openLink(logger log.Logger, config *LinkConfig, m metrics.Metrics) (*link, error) {
	db, err := badgerdb.New(
		config.DBDir,
		nil, // configBytes - use default
		"",  // namespace
		nil, // metrics
	)
	if err != nil {
		return nil, err
	}

	verifier, err := bmv.New(
		logger,
		prefixdb.New([]byte(config.Link), db),
		config.Config,
		m,
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &link{
		db:       db,
		verifier: verifier,
	}, nil
}

func (l *link) Close() error {
	return l.db.Close()
}

// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package btpaddr parses BTP addresses of the form `btp://<network>/<account>`.
package btpaddr

import (
	"errors"
	"fmt"
	"strings"
)

const Scheme = "btp://"

var ErrInvalidAddress = errors.New("invalid BTP address")

type Address struct {
	Network string
	Account string
}

func Parse(s string) (Address, error) {
	rest, ok := strings.CutPrefix(s, Scheme)
	if !ok {
		return Address{}, fmt.Errorf("%w: missing scheme in %q", ErrInvalidAddress, s)
	}
	network, account, ok := strings.Cut(rest, "/")
	if !ok || network == "" || account == "" || strings.Contains(account, "/") {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return Address{
		Network: network,
		Account: account,
	}, nil
}

func (a Address) String() string {
	return Scheme + a.Network + "/" + a.Account
}

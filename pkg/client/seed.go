package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// SeedResult lists the market item ids the seed produced, per step.
type SeedResult struct {
	Token     common.Address
	ListedBy0 []uint64
	ListedBy1 []uint64
	Deleted   uint64
}

// Seed fills a fresh market and dev registry with a known history: six
// assets listed by accounts[0], three by accounts[1], then accounts[0] buys
// the first two of accounts[1]'s, accounts[1] and accounts[2] each buy one
// of accounts[0]'s, and accounts[0] withdraws its last listing.
//
// When fund is not empty every account is first credited with fund ether,
// which needs the admin token.
func Seed(ctx context.Context, c *Client, accounts [3]common.Address, price, fund string) (SeedResult, error) {
	var res SeedResult

	info, err := c.Market(ctx)
	if err != nil {
		return res, fmt.Errorf("read market: %w", err)
	}
	token, err := c.Token(ctx)
	if err != nil {
		return res, fmt.Errorf("read registry: %w", err)
	}
	res.Token = token.Address
	log := zap.L().With(zap.String("market", info.Address.Hex()), zap.String("token", token.Address.Hex()))

	if fund != "" {
		for _, a := range accounts {
			if _, err := c.Deposit(ctx, a, fund); err != nil {
				return res, fmt.Errorf("fund %s: %w", a.Hex(), err)
			}
		}
		log.With(zap.String("amount", fund)).Info("Accounts funded")
	}

	list := func(seller common.Address, n int) ([]uint64, []uint64, error) {
		var assets, items []uint64
		for i := 0; i < n; i++ {
			assetID, err := c.Mint(ctx, seller)
			if err != nil {
				return nil, nil, fmt.Errorf("mint to %s: %w", seller.Hex(), err)
			}
			if err := c.Approve(ctx, seller, info.Address, assetID); err != nil {
				return nil, nil, fmt.Errorf("approve asset %d: %w", assetID, err)
			}
			item, err := c.CreateItem(ctx, seller, token.Address, assetID, price, info.ListingFee)
			if err != nil {
				return nil, nil, fmt.Errorf("list asset %d: %w", assetID, err)
			}
			assets = append(assets, assetID)
			items = append(items, item.ID)
		}
		return assets, items, nil
	}

	assets0, items0, err := list(accounts[0], 6)
	if err != nil {
		return res, err
	}
	res.ListedBy0 = items0
	log.With(zap.Uint64s("items", items0)).Info("Listed assets of account #0")

	assets1, items1, err := list(accounts[1], 3)
	if err != nil {
		return res, err
	}
	res.ListedBy1 = items1
	log.With(zap.Uint64s("items", items1)).Info("Listed assets of account #1")

	buys := []struct {
		buyer common.Address
		asset uint64
	}{
		{accounts[0], assets1[0]},
		{accounts[0], assets1[1]},
		{accounts[1], assets0[0]},
		{accounts[2], assets0[1]},
	}
	for _, b := range buys {
		item, err := c.BuyItem(ctx, b.buyer, token.Address, b.asset, price)
		if err != nil {
			return res, fmt.Errorf("buy asset %d: %w", b.asset, err)
		}
		log.With(zap.Uint64("itemId", item.ID), zap.String("buyer", b.buyer.Hex())).Info("Bought item")
	}

	deleted, err := c.DeleteItem(ctx, accounts[0], items0[5])
	if err != nil {
		return res, fmt.Errorf("delete item %d: %w", items0[5], err)
	}
	res.Deleted = deleted.ID
	log.With(zap.Uint64("itemId", deleted.ID)).Info("Deleted item")

	return res, nil
}

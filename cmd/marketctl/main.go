package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"nftmarket/pkg/auth"
	"nftmarket/pkg/client"
	"nftmarket/pkg/config"
	"nftmarket/pkg/logger"
)

// Hardhat's first three development accounts.
var defaultAccounts = []string{
	"0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266",
	"0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
	"0x3C44CdDdB6a900fa2b585dd299e03d12FA4293BC",
}

func main() {
	config.Init(logger.New)

	app := &cli.App{
		Name:  "marketctl",
		Usage: "operate a running market server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "server", Value: "http://localhost:8080", Usage: "market API base URL", EnvVars: []string{"MARKET_SERVER"}},
			&cli.StringFlag{Name: "admin-token", Usage: "admin token for owner operated routes", EnvVars: []string{"MARKET_ADMIN_TOKEN"}},
			&cli.DurationFlag{Name: "timeout", Value: 10 * time.Second, Usage: "per request timeout"},
		},
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "mint, list, buy and delete a known set of items against the dev registry",
				Action: seed,
				Flags: []cli.Flag{
					&cli.StringSliceFlag{Name: "account", Value: cli.NewStringSlice(defaultAccounts...), Usage: "the three accounts to act as"},
					&cli.StringFlag{Name: "price", Value: "1", Usage: "listing price in ether"},
					&cli.StringFlag{Name: "fund", Value: "10", Usage: "credit each account with this much ether first (empty to skip)"},
				},
			},
			{
				Name:   "upgrade",
				Usage:  "switch the market to another logic version",
				Action: upgrade,
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "version", Value: 2, Usage: "logic version"},
					&cli.StringFlag{Name: "caller", Value: defaultAccounts[0], Usage: "market owner address"},
				},
			},
			{
				Name:   "market",
				Usage:  "print the fee schedule and logic version",
				Action: showMarket,
			},
			{
				Name:      "hash-token",
				Usage:     "print the ADMIN_TOKEN_HASH value for a token",
				ArgsUsage: "<token>",
				Action:    hashToken,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.L().With(zap.Error(err)).Fatal("Command failed")
	}
}

func newClient(c *cli.Context) *client.Client {
	return client.New(
		c.String("server"),
		client.WithAdminToken(c.String("admin-token")),
		client.WithTimeout(c.Duration("timeout")),
	)
}

func parseAccount(raw string) (common.Address, error) {
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("invalid address %q", raw)
	}
	return common.HexToAddress(raw), nil
}

func seed(c *cli.Context) error {
	raw := c.StringSlice("account")
	if len(raw) != 3 {
		return fmt.Errorf("seed needs exactly three accounts, got %d", len(raw))
	}
	var accounts [3]common.Address
	for i, r := range raw {
		a, err := parseAccount(r)
		if err != nil {
			return err
		}
		accounts[i] = a
	}

	res, err := client.Seed(c.Context, newClient(c), accounts, c.String("price"), c.String("fund"))
	if err != nil {
		return err
	}
	return printJSON(res)
}

func upgrade(c *cli.Context) error {
	caller, err := parseAccount(c.String("caller"))
	if err != nil {
		return err
	}
	info, err := newClient(c).Upgrade(c.Context, caller, c.Int("version"))
	if err != nil {
		return err
	}
	zap.L().With(zap.Int("logicVersion", info.LogicVersion)).Info("Market upgraded")
	return printJSON(info)
}

func showMarket(c *cli.Context) error {
	info, err := newClient(c).Market(c.Context)
	if err != nil {
		return err
	}
	return printJSON(info)
}

func hashToken(c *cli.Context) error {
	token := c.Args().First()
	if token == "" {
		return fmt.Errorf("usage: marketctl hash-token <token>")
	}
	hash, err := auth.HashToken(token)
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

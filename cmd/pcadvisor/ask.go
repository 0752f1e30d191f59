package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/urfave/cli/v2"

	"pcadvisor/internal/catalog"
	"pcadvisor/internal/model"
	"pcadvisor/internal/reviews"
)

func chatCommand() *cli.Command {
	return &cli.Command{
		Name:      "chat",
		Usage:     "Ask the advisor one question",
		ArgsUsage: "<question>",
		Action: func(c *cli.Context) error {
			q := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
			if q == "" {
				return errors.New("a question is required")
			}
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := openCatalog(c.Context, cfg)
			if err != nil {
				return err
			}
			defer src.Close()

			adv, err := newAdvisor(cfg, src.store, nil)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, adv.Chat(c.Context, q))
			return nil
		},
	}
}

func estimateCommand() *cli.Command {
	return &cli.Command{
		Name:  "estimate",
		Usage: "Request a structured build estimate and print it as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "budget", Usage: "Budget in 만원", Required: true},
			&cli.StringFlag{Name: "mode", Usage: "Build purpose"},
			&cli.StringFlag{Name: "cpu", Usage: "Preferred CPU brand"},
			&cli.StringFlag{Name: "gpu", Usage: "Preferred GPU brand"},
			&cli.StringFlag{Name: "storage", Usage: "Storage preference"},
			&cli.StringFlag{Name: "monitor", Usage: "Monitor preference"},
		},
		Action: func(c *cli.Context) error {
			req := model.EstimateRequest{
				Mode:     c.String("mode"),
				Budget:   c.Int("budget"),
				CPUBrand: c.String("cpu"),
				GPUBrand: c.String("gpu"),
				Storage:  c.String("storage"),
				Monitor:  c.String("monitor"),
			}.WithDefaults()
			if err := validator.New(validator.WithRequiredStructEnabled()).Struct(req); err != nil {
				return fmt.Errorf("invalid estimate request: %w", err)
			}

			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			src, err := openCatalog(c.Context, cfg)
			if err != nil {
				return err
			}
			defer src.Close()

			adv, err := newAdvisor(cfg, src.store, nil)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(adv.Estimate(c.Context, req))
		},
	}
}

func summarizeReviewsCommand() *cli.Command {
	return &cli.Command{
		Name:  "summarize-reviews",
		Usage: "Summarize one batch of unsummarized community reviews",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Reviews per pass (overrides reviews.batch_size)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			if cfg.Database.DSN == "" {
				return errors.New("database.dsn is required")
			}
			if cfg.Gemini.APIKey == "" {
				return errors.New("gemini api key is required")
			}
			pg, err := catalog.OpenPostgres(c.Context, cfg.Database.DSN)
			if err != nil {
				return err
			}
			defer pg.Close()

			gen, err := reviews.NewGenAI(c.Context, cfg.Gemini.APIKey, cfg.Reviews.Model)
			if err != nil {
				return err
			}
			limit := cfg.Reviews.BatchSize
			if l := c.Int("limit"); l > 0 {
				limit = l
			}
			res, err := reviews.NewJob(pg, gen, limit).RunOnce(c.Context)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "summarized=%d skipped=%d failed=%d\n", res.Summarized, res.Skipped, res.Failed)
			return nil
		},
	}
}

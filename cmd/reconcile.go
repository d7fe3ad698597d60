package cmd

import (
	"context"
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	gcmd "github.com/Laisky/go-utils/v6/cmd"
	"github.com/Laisky/zap"
	"github.com/spf13/cobra"

	"github.com/Laisky/laisky-portfolio/library/log"
)

var reconcileCMD = &cobra.Command{
	Use:   "reconcile",
	Short: "recompute the comment counter of every post",
	Long: `recompute every post's commentCount from its live comments
and write the corrections, printing them as json on stdout.`,
	Args: gcmd.NoExtraArgs,
	PreRun: func(cmd *cobra.Command, args []string) {
		if err := initialize(cmd.Context(), cmd); err != nil {
			log.Logger.Panic("init", zap.Error(err))
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runReconcile(cmd.Context(), cmd.OutOrStdout())
	},
}

func init() {
	rootCMD.AddCommand(reconcileCMD)
}

func runReconcile(ctx context.Context, out io.Writer) error {
	a, err := setupApp(ctx)
	if err != nil {
		return errors.Wrap(err, "setup app")
	}
	defer a.Close(context.Background())

	ret, err := a.blog.Reconcile(ctx)
	if err != nil {
		return errors.Wrap(err, "reconcile")
	}

	log.Logger.Info("reconciled comment counters",
		zap.Int("scanned", ret.Scanned),
		zap.Int("corrected", len(ret.Corrections)))
	return json.NewEncoder(out).Encode(ret)
}

package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/traininduction/traininduction/internal/api/models"
	"github.com/traininduction/traininduction/internal/app"
	"github.com/traininduction/traininduction/internal/scoring"
)

func newScoreCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "score TRAIN_ID",
		Short: "Score one train",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := opts.operationalContext()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				oc.Date = a.Engine.ReferenceDate(oc)
				result, err := a.Induction.ScoreTrain(ctx, args[0], oc)
				if err != nil {
					return err
				}

				view := models.NewScoreResult(args[0], scoring.FormatDate(oc.Date), result)
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				return printScore(cmd.OutOrStdout(), view)
			})
		},
	}
}

func newRankCmd(opts *rootOptions) *cobra.Command {
	var availableOnly bool

	cmd := &cobra.Command{
		Use:   "rank",
		Short: "Rank the fleet, conflict-free trains first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := opts.operationalContext()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				ranking, err := a.Induction.RankFleet(ctx, oc, availableOnly)
				if err != nil {
					return err
				}

				view := models.NewRanking(ranking)
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Ranking for %s (%d considered)\n", view.Date, view.Considered)
				return printRanked(cmd.OutOrStdout(), view.Items, view.Failures)
			})
		},
	}
	cmd.Flags().BoolVar(&availableOnly, "available-only", false, "exclude trains in maintenance hold")
	return cmd
}

func newOptimizeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "optimize",
		Short: "Summarize induction recommendations for a service day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			oc, err := opts.operationalContext()
			if err != nil {
				return err
			}
			return opts.withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Induction.OptimizeFleet(ctx, a.Engine.ReferenceDate(oc))
				if err != nil {
					return err
				}

				view := models.NewFleetSummary(summary)
				if opts.asJSON {
					return writeJSON(cmd.OutOrStdout(), view)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Fleet summary for %s: %d of %d trains available\n",
					view.Date, view.AvailableTrains, view.TotalTrains)
				fmt.Fprintf(out, "optimal=%d good=%d caution=%d avoid=%d\n",
					view.Summary.Optimal, view.Summary.Good, view.Summary.Caution, view.Summary.Avoid)
				return printRanked(out, view.Recommendations, view.Failures)
			})
		},
	}
}

func printScore(w io.Writer, s models.ScoreResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Train\t%s\n", s.TrainID)
	fmt.Fprintf(tw, "Date\t%s\n", s.Date)
	fmt.Fprintf(tw, "Score\t%d\n", s.Score)
	fmt.Fprintf(tw, "Recommendation\t%s\n", s.Recommendation.Code)
	fmt.Fprintf(tw, "Breakdown\tfitness=%d jobcard=%d branding=%d mileage=%d cleaning=%d stabling=%d\n",
		s.Breakdown.Fitness, s.Breakdown.JobCard, s.Breakdown.Branding,
		s.Breakdown.Mileage, s.Breakdown.Cleaning, s.Breakdown.Stabling)
	for _, c := range s.Conflicts {
		fmt.Fprintf(tw, "Conflict\t%s\n", c)
	}
	return tw.Flush()
}

func printRanked(w io.Writer, items []models.RankedTrain, failures []models.EvaluationFailure) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tTRAIN\tSCORE\tRECOMMENDATION\tCONFLICTS")
	for _, t := range items {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n",
			t.Rank, t.TrainID, t.Score, t.Recommendation.Code, strings.Join(t.Conflicts, "; "))
	}
	for _, f := range failures {
		fmt.Fprintf(tw, "-\t%s\t-\tERROR\t%s\n", f.TrainID, f.Error)
	}
	return tw.Flush()
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/mhradil/jiratrack/internal/app"
	"github.com/mhradil/jiratrack/internal/config"
	"github.com/mhradil/jiratrack/internal/schedule"
	"github.com/mhradil/jiratrack/internal/secrets"
	"github.com/mhradil/jiratrack/internal/service"
	"github.com/mhradil/jiratrack/internal/store"
)

var (
	dataDir string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "jiratrack",
		Short: "Periodically sync JIRA issues and track field-level changes",
		Long: `jiratrack pulls work items from a JIRA instance on a schedule, normalizes
them into a flat record, detects field-level changes against the previous
sync, and persists batches, snapshots, a changelog and a run history.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			}
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory (defaults to the user data dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		newSyncCmd(),
		newDaemonCmd(),
		newStatusCmd(),
		newTestConnectionCmd(),
		newProjectsCmd(),
		newSettingsCmd(),
		newTokenCmd(),
	)

	if err := fang.Execute(context.Background(), rootCmd); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}

func createApp() (*app.App, error) {
	dir := dataDir
	if dir == "" {
		var err error
		dir, err = config.DataDir()
		if err != nil {
			return nil, err
		}
	}
	return app.New(dir)
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			result := a.Service().Run(cmd.Context(), store.TriggerManual)
			if !result.Success {
				return fmt.Errorf("sync failed: %s", result.Error)
			}

			fmt.Printf("Synced %d issues in %s (%d changes detected)\n",
				result.IssueCount, result.Duration.Round(time.Millisecond), result.Changes)
			return nil
		},
	}
}

// logObserver reports sync progress and completion through the log.
type logObserver struct {
	log *logrus.Entry
}

func newLogObserver() *logObserver {
	return &logObserver{log: logrus.WithField("component", "daemon")}
}

func (o *logObserver) Progress(current, total int, percent float64) {
	o.log.WithField("fetched", current).WithField("total", total).
		Debugf("sync progress %.0f%%", percent)
}

func (o *logObserver) Completed(result service.Result) {
	if !result.Success {
		o.log.WithField("error", result.Error).Warn("scheduled sync failed")
		return
	}
	o.log.WithField("issues", result.IssueCount).WithField("changes", result.Changes).
		Info("scheduled sync finished")
}

func newDaemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run the scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			a.Service().SetObserver(newLogObserver())

			if err := a.StartSchedules(); err != nil {
				return err
			}
			defer a.StopSchedules()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logrus.Info("scheduler running, press Ctrl-C to stop")
			<-ctx.Done()
			logrus.Info("shutting down")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	var historyLimit int

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the sync status and recent run history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			status := a.Service().Status()
			if status.LastSync != nil {
				fmt.Printf("Last successful sync: %s\n", status.LastSync.Format("2006-01-02 15:04:05"))
			} else {
				fmt.Println("No successful sync yet")
			}

			settings := a.Settings()
			if settings.Schedule.Enabled {
				if next, ok := schedule.NextRunTime(settings.Schedule.Times, time.Now()); ok {
					fmt.Printf("Next scheduled sync: %s\n", next.Format("2006-01-02 15:04"))
				}
			}

			meta, err := a.Store().LoadMeta()
			if err != nil {
				return err
			}
			if len(meta.History) == 0 {
				return nil
			}

			fmt.Println("\nRecent runs:")
			for i, entry := range meta.History {
				if i >= historyLimit {
					break
				}
				outcome := "ok"
				if !entry.Success {
					outcome = "FAILED"
					if entry.Error != nil {
						outcome += ": " + *entry.Error
					}
				}
				fmt.Printf("  %s  %-9s  %4d issues  %5dms  %s\n",
					entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Trigger,
					entry.IssueCount, entry.DurationMS, outcome)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "Number of history entries to show")
	return cmd
}

func newTestConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Probe the configured JIRA connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			client := a.Client()
			if client == nil {
				return fmt.Errorf("jira connection is not configured; set jira.baseUrl in settings")
			}

			ok, message := client.TestConnection(cmd.Context())
			if !ok {
				return fmt.Errorf("connection failed: %s", message)
			}
			fmt.Printf("Connected as %s\n", message)
			return nil
		},
	}
}

func newProjectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "List the projects visible on the remote instance",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			client := a.Client()
			if client == nil {
				return fmt.Errorf("jira connection is not configured; set jira.baseUrl in settings")
			}

			projects, err := client.ListProjects(cmd.Context())
			if err != nil {
				return err
			}
			for _, project := range projects {
				fmt.Printf("%-12s %s\n", project.Key, project.Name)
			}
			return nil
		},
	}
}

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect the stored settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(a.Settings())
			if err != nil {
				return err
			}
			fmt.Print(string(data))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the stored settings document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := createApp()
			if err != nil {
				return err
			}

			if err := a.Store().ValidateSettings(); err != nil {
				return err
			}
			fmt.Println("Settings are valid")
			return nil
		},
	})

	return cmd
}

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage the stored JIRA API token",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store the JIRA API token",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := createApp()
				if err != nil {
					return err
				}
				return a.Secrets().Save(secrets.PurposeAPIToken, args[0])
			},
		},
		&cobra.Command{
			Use:   "delete",
			Short: "Delete the stored JIRA API token",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := createApp()
				if err != nil {
					return err
				}
				return a.Secrets().Delete(secrets.PurposeAPIToken)
			},
		},
	)

	return cmd
}

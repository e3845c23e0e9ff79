package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"crewmatch/internal/config"
	"crewmatch/internal/db"
	"crewmatch/internal/engine"
	"crewmatch/internal/migrate"
	"crewmatch/internal/repo"
	"crewmatch/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "cm",
	Short: "Crewmatch CLI",
	Long: `Crewmatch matches pending tasks to available workers and tracks the
resulting assignments.
- Workspace: your .crewmatch directory holding the database; tuning lives in crewmatch.yml.
- Workers declare availability periods (inclusive date ranges); overlaps are fine.
- Chiefs post tasks with a date window, required skills and a department.
- 'cm match run' scores every pending task against every free worker and
  proposes the top candidates; nothing is booked until you confirm.
- 'cm assignment confirm' re-checks availability and double-booking before
  committing; 'cm assignment cancel' reopens the task.
- Event log: diary of changes, view with 'cm log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("CREWMATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "local-user", "actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(workerCmd())
	rootCmd.AddCommand(chiefCmd())
	rootCmd.AddCommand(availabilityCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(assignmentCmd())
	rootCmd.AddCommand(matchCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Manage configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default crewmatch.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault()), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	})
	cfg.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			return printJSON(c)
		},
	})
	return cfg
}

func workerCmd() *cobra.Command {
	w := &cobra.Command{Use: "worker", Short: "Manage workers"}
	w.AddCommand(workerAddCmd())
	w.AddCommand(workerListCmd())
	w.AddCommand(workerShowCmd())
	w.AddCommand(workerRemoveCmd())
	return w
}

func workerAddCmd() *cobra.Command {
	var name, department, skills, phone, email string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				w, err := e.CreateWorker(ctx, engine.WorkerCreateOptions{
					Name:       name,
					Department: department,
					Skills:     splitFlag(skills),
					Phone:      phone,
					Email:      email,
					ActorID:    viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(w)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "worker name")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&skills, "skills", "", "comma-separated skills")
	cmd.Flags().StringVar(&phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func workerListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				workers, err := r.ListWorkers(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(workers)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Department", "Skills"})
				for _, w := range workers {
					tw.AppendRow(table.Row{w.ID, w.Name, w.Department, strings.Join(w.Skills, ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func workerShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <worker-id>",
		Short: "Show a worker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				w, err := r.GetWorker(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(w)
			})
		},
	}
	return cmd
}

func workerRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <worker-id>",
		Short: "Remove a worker, their availability and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteWorker(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func chiefCmd() *cobra.Command {
	c := &cobra.Command{Use: "chief", Short: "Manage chiefs"}
	c.AddCommand(chiefAddCmd())
	c.AddCommand(chiefListCmd())
	c.AddCommand(chiefRemoveCmd())
	return c
}

func chiefAddCmd() *cobra.Command {
	var name, department, email string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a chief",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				c, err := e.CreateChief(ctx, engine.ChiefCreateOptions{
					Name:       name,
					Department: department,
					Email:      email,
					ActorID:    viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(c)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "chief name")
	cmd.Flags().StringVar(&department, "department", "", "department")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func chiefListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List chiefs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				chiefs, err := r.ListChiefs(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(chiefs)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Department", "Email"})
				for _, c := range chiefs {
					tw.AppendRow(table.Row{c.ID, c.Name, c.Department, c.Email})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func chiefRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <chief-id>",
		Short: "Remove a chief and their tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteChief(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func availabilityCmd() *cobra.Command {
	a := &cobra.Command{Use: "availability", Short: "Manage availability periods"}
	a.AddCommand(availabilityAddCmd())
	a.AddCommand(availabilityListCmd())
	a.AddCommand(availabilityRemoveCmd())
	return a
}

func availabilityAddCmd() *cobra.Command {
	var workerID, start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Declare an availability period",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				p, err := e.CreateAvailability(ctx, engine.AvailabilityCreateOptions{
					WorkerID:  workerID,
					StartDate: start,
					EndDate:   end,
					ActorID:   viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(p)
			})
		},
	}
	cmd.Flags().StringVar(&workerID, "worker", "", "worker id")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("worker")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func availabilityListCmd() *cobra.Command {
	var workerID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List availability periods",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				periods, err := r.ListAvailability(ctx, workerID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(periods)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Worker", "Start", "End"})
				for _, p := range periods {
					tw.AppendRow(table.Row{p.ID, p.WorkerID, p.StartDate, p.EndDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&workerID, "worker", "", "filter by worker id")
	return cmd
}

func availabilityRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <period-id>",
		Short: "Remove an availability period",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteAvailability(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func taskCmd() *cobra.Command {
	t := &cobra.Command{Use: "task", Short: "Manage tasks"}
	t.AddCommand(taskAddCmd())
	t.AddCommand(taskListCmd())
	t.AddCommand(taskShowCmd())
	t.AddCommand(taskRemoveCmd())
	return t
}

func taskAddCmd() *cobra.Command {
	var chiefID, title, description, skills, department, priority, start, end string
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				t, err := e.CreateTask(ctx, engine.TaskCreateOptions{
					ChiefID:            chiefID,
					Title:              title,
					Description:        description,
					RequiredSkills:     splitFlag(skills),
					RequiredDepartment: department,
					Priority:           priority,
					StartDate:          start,
					EndDate:            end,
					ActorID:            viper.GetString("actor-id"),
				})
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	cmd.Flags().StringVar(&chiefID, "chief", "", "chief id")
	cmd.Flags().StringVar(&title, "title", "", "title")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&skills, "skills", "", "comma-separated required skills")
	cmd.Flags().StringVar(&department, "department", "", "required department")
	cmd.Flags().StringVar(&priority, "priority", "", "priority (low, medium, high)")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("chief")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func taskListCmd() *cobra.Command {
	var f repo.TaskFilters
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tasks, err := r.ListTasks(ctx, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Window", "Priority", "Worker"})
				for _, t := range tasks {
					worker := ""
					if t.MatchedWorkerID != nil {
						worker = *t.MatchedWorkerID
					}
					window := fmt.Sprintf("%s..%s", t.StartDate, t.EndDate)
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status, window, t.Priority, worker})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&f.Status, "status", "", "status filter (pending, assigned)")
	cmd.Flags().StringVar(&f.ChiefID, "chief", "", "chief filter")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSON(t)
			})
		},
	}
	return cmd
}

func taskRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <task-id>",
		Short: "Remove a task and its assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.DeleteTask(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func assignmentCmd() *cobra.Command {
	a := &cobra.Command{Use: "assignment", Short: "Manage assignments"}
	a.AddCommand(assignmentListCmd())
	a.AddCommand(assignmentConfirmCmd())
	a.AddCommand(assignmentCancelCmd())
	return a
}

func assignmentListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListAssignmentDetails(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Task", "Worker", "Window", "Score"})
				for _, d := range items {
					score := ""
					if d.MatchScore != nil {
						score = fmt.Sprintf("%.1f", *d.MatchScore)
					}
					window := fmt.Sprintf("%s..%s", d.StartDate, d.EndDate)
					tw.AppendRow(table.Row{d.ID, d.TaskTitle, d.WorkerName, window, score})
				}
				tw.Render()
				return nil
			})
		},
	}
	return cmd
}

func assignmentConfirmCmd() *cobra.Command {
	var taskID, workerID, start, end string
	var score float64
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Confirm a proposed task/worker pairing",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				opts := engine.ConfirmOptions{
					TaskID:    taskID,
					WorkerID:  workerID,
					StartDate: start,
					EndDate:   end,
					ActorID:   viper.GetString("actor-id"),
				}
				if cmd.Flags().Changed("score") {
					opts.MatchScore = &score
				}
				a, err := e.Confirm(ctx, opts)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().StringVar(&taskID, "task", "", "task id")
	cmd.Flags().StringVar(&workerID, "worker", "", "worker id")
	cmd.Flags().StringVar(&start, "start", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "end date (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&score, "score", 0, "match score to record")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("worker")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func assignmentCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <assignment-id>",
		Short: "Cancel an assignment and reopen its task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				return e.Cancel(ctx, args[0], viper.GetString("actor-id"))
			})
		},
	}
	return cmd
}

func matchCmd() *cobra.Command {
	m := &cobra.Command{Use: "match", Short: "Matching runs"}
	m.AddCommand(matchRunCmd())
	return m
}

func matchRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Propose candidates for every pending task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				run, err := e.RunMatching(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(run)
				}
				for _, p := range run.Proposals {
					fmt.Printf("%s (%s..%s)\n", p.Task.Title, p.Task.StartDate, p.Task.EndDate)
					if len(p.Candidates) == 0 {
						fmt.Println("  no candidates")
						continue
					}
					tw := table.NewWriter()
					tw.SetOutputMirror(os.Stdout)
					tw.AppendHeader(table.Row{"Worker", "Department", "Score", "Coverage"})
					for _, c := range p.Candidates {
						tw.AppendRow(table.Row{c.WorkerName, c.WorkerDepartment, fmt.Sprintf("%.1f", c.Score), fmt.Sprintf("%.0f%%", c.Coverage*100)})
					}
					tw.Render()
				}
				for _, s := range run.Skipped {
					fmt.Printf("skipped %s: %s\n", s.TaskID, s.Reason)
				}
				return nil
			})
		},
	}
	return cmd
}

func logCmd() *cobra.Command {
	log := &cobra.Command{
		Use:   "log",
		Short: "Event log",
	}
	log.AddCommand(logTailCmd())
	return log
}

func logTailCmd() *cobra.Command {
	var n int
	var evtType, entityKind, entityID string
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				events, err := r.LatestEvents(cmd.Context(), n, evtType, entityKind, entityID)
				if err != nil {
					return err
				}
				return printJSON(events)
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&evtType, "type", "", "event type filter")
	cmd.Flags().StringVar(&entityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&entityID, "entity-id", "", "entity id")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			if _, err := db.EnsureWorkspace(workspace); err != nil {
				return err
			}
			conn, err := db.Open(db.Config{Workspace: workspace})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			cfg, err := config.Load(workspace)
			if err != nil {
				return err
			}
			e := engine.New(conn, cfg)
			authCfg := server.AuthConfig{
				JWTSecret:      cfg.Auth.JWTSecret,
				AdminUsername:  cfg.Auth.Admin.Username,
				AdminPassword:  cfg.Auth.Admin.Password,
				AllowNameLogin: cfg.Auth.AllowNameLogin,
			}
			if env := os.Getenv("CREWMATCH_JWT_SECRET"); env != "" {
				authCfg.JWTSecret = env
			}
			if strings.TrimSpace(authCfg.JWTSecret) == "" {
				fmt.Println("warning: no jwt secret configured, API runs without authentication")
			}
			handler, err := server.New(server.Config{Engine: e, BasePath: basePath, Auth: authCfg})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Crewmatch API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(workspace)
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, cfg))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func splitFlag(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/crimemap/crimemap/internal/client"
	"github.com/crimemap/crimemap/internal/explorer"
	"github.com/crimemap/crimemap/internal/model"
	"github.com/crimemap/crimemap/internal/query"
)

// filterFlags are the explorer filter controls shared by list, locate and
// density.
type filterFlags struct {
	start         string
	end           string
	codes         string
	neighborhoods string
	limit         int
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Earliest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.end, "end", "", "Latest date, YYYY-MM-DD")
	cmd.Flags().StringVar(&f.codes, "code", "", "Comma-separated incident codes")
	cmd.Flags().StringVar(&f.neighborhoods, "neighborhood", "", "Comma-separated neighborhood numbers")
	cmd.Flags().IntVar(&f.limit, "limit", model.DefaultIncidentLimit, "Maximum incidents to fetch")
}

// actions translates the flags into the same control changes a user makes
// before pressing Update.
func (f *filterFlags) actions() ([]explorer.Action, error) {
	codes, err := query.ParseIntList(f.codes)
	if err != nil {
		return nil, fmt.Errorf("--code: %w", err)
	}
	hoods, err := query.ParseIntList(f.neighborhoods)
	if err != nil {
		return nil, fmt.Errorf("--neighborhood: %w", err)
	}

	acts := []explorer.Action{
		explorer.SetDateRange{Start: f.start, End: f.end},
		explorer.SetLimit{Limit: f.limit},
	}
	for _, c := range codes {
		acts = append(acts, explorer.ToggleCode{Code: c})
	}
	for _, n := range hoods {
		acts = append(acts, explorer.ToggleNeighborhood{ID: n})
	}
	return append(acts, explorer.ApplyFilters{}), nil
}

// session is an explorer App talking to a running server.
type session struct {
	app     *explorer.App
	release func()
}

func newSession(cmd *cobra.Command, serverURL string) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.Logging, false)
	geo, release := newGeocoder(cfg, logger)

	api := client.New(serverURL, &http.Client{Timeout: 30 * time.Second})
	notifier := explorer.NotifierFunc(func(msg string) {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", msg)
	})
	app := explorer.NewApp(api, geo, notifier, explorer.Config{
		City:  cfg.Geocoder.City,
		Radii: explorer.DefaultRadii,
	}, logger)
	return &session{app: app, release: release}, nil
}

// run dispatches acts in order and stops at the first failure, which the
// notifier has already printed.
func (s *session) run(ctx context.Context, acts ...explorer.Action) error {
	for _, a := range acts {
		if err := s.app.Dispatch(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

func newIncidentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "incidents",
		Aliases: []string{"incident"},
		Short:   "List, file and retract incidents on a running server",
	}

	cmd.PersistentFlags().String("server", "http://localhost:8080", "Base URL of the crimemap server")

	cmd.AddCommand(newIncidentsListCmd())
	cmd.AddCommand(newIncidentsCreateCmd())
	cmd.AddCommand(newIncidentsDeleteCmd())

	return cmd
}

// ---------- incidents list ----------

func newIncidentsListCmd() *cobra.Command {
	var (
		filters    filterFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List incidents, newest first",
		Example: `  crimemap incidents list --code 600,700 --neighborhood 7
  crimemap incidents list --start 2019-10-01 --end 2019-10-31 --limit 50`,
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := filters.actions()
			if err != nil {
				return err
			}
			s, err := newSession(cmd, serverFlag(cmd))
			if err != nil {
				return err
			}
			defer s.release()

			acts = append([]explorer.Action{explorer.LoadReference{}}, acts...)
			if err := s.run(cmd.Context(), acts...); err != nil {
				return err
			}

			st := s.app.State()
			if jsonOutput {
				return printJSON(cmd.OutOrStdout(), st.Incidents)
			}
			printIncidents(cmd.OutOrStdout(), st)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func printIncidents(w io.Writer, st explorer.State) {
	if len(st.Incidents) == 0 {
		fmt.Fprintln(w, "No incidents match.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CASE\tDATE\tTIME\tCODE\tTYPE\tINCIDENT\tGRID\tNEIGHBORHOOD\tBLOCK")
	for _, inc := range st.Incidents {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%d\t%s\t%s\n",
			inc.CaseNumber, inc.Date, inc.Time, inc.Code, st.CodeLabel(inc.Code),
			inc.Incident, inc.PoliceGrid, st.NeighborhoodNames[inc.NeighborhoodNumber], inc.Block)
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d incident(s)\n", len(st.Incidents))
}

// ---------- incidents create ----------

func newIncidentsCreateCmd() *cobra.Command {
	var inc model.Incident

	cmd := &cobra.Command{
		Use:   "create",
		Short: "File a new incident",
		Example: `  crimemap incidents create --case-number 19245020 --date 2019-10-30 --time 23:57:08 \
    --code 600 --incident Theft --grid 87 --neighborhood 7 --block "THOMAS AV & VICTORIA"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if inc.CaseNumber == "" || inc.Date == "" || inc.Time == "" {
				return fmt.Errorf("--case-number, --date and --time are required")
			}
			s, err := newSession(cmd, serverFlag(cmd))
			if err != nil {
				return err
			}
			defer s.release()

			if err := s.run(cmd.Context(), explorer.CreateIncident{Incident: inc}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created incident %s\n", inc.CaseNumber)
			return nil
		},
	}

	cmd.Flags().StringVar(&inc.CaseNumber, "case-number", "", "Unique case number")
	cmd.Flags().StringVar(&inc.Date, "date", "", "Date, YYYY-MM-DD")
	cmd.Flags().StringVar(&inc.Time, "time", "", "Time, HH:MM:SS")
	cmd.Flags().IntVar(&inc.Code, "code", 0, "Incident code")
	cmd.Flags().StringVar(&inc.Incident, "incident", "", "Incident description")
	cmd.Flags().IntVar(&inc.PoliceGrid, "grid", 0, "Police grid")
	cmd.Flags().IntVar(&inc.NeighborhoodNumber, "neighborhood", 0, "Neighborhood number")
	cmd.Flags().StringVar(&inc.Block, "block", "", "Block address")

	return cmd
}

// ---------- incidents delete ----------

func newIncidentsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <case_number>",
		Aliases: []string{"rm"},
		Short:   "Retract an incident by case number",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, serverFlag(cmd))
			if err != nil {
				return err
			}
			defer s.release()

			if err := s.run(cmd.Context(), explorer.DeleteIncident{CaseNumber: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted incident %s\n", args[0])
			return nil
		},
	}
}

// ---------- locate ----------

func newLocateCmd() *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "locate <case_number>",
		Short: "Find where an incident happened",
		Long: `Fetch incidents with the given filters, then geocode the block of the
selected one the way the map does when an incident is clicked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := filters.actions()
			if err != nil {
				return err
			}
			s, err := newSession(cmd, serverFlag(cmd))
			if err != nil {
				return err
			}
			defer s.release()

			acts = append(acts, explorer.SelectIncident{CaseNumber: args[0]})
			if err := s.run(cmd.Context(), acts...); err != nil {
				return err
			}

			pin := s.app.State().Map.Pinned
			if pin == nil {
				return fmt.Errorf("incident %s was not located", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  at %s\n", pin.Label, pin.Location)
			return nil
		},
	}

	filters.register(cmd)
	cmd.Flags().String("server", "http://localhost:8080", "Base URL of the crimemap server")

	return cmd
}

// ---------- density ----------

func newDensityCmd() *cobra.Command {
	var (
		filters    filterFlags
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "density",
		Short: "Show incident counts and marker sizes per neighborhood",
		RunE: func(cmd *cobra.Command, args []string) error {
			acts, err := filters.actions()
			if err != nil {
				return err
			}
			s, err := newSession(cmd, serverFlag(cmd))
			if err != nil {
				return err
			}
			defer s.release()

			acts = append([]explorer.Action{explorer.LoadReference{}}, acts...)
			if err := s.run(cmd.Context(), acts...); err != nil {
				return err
			}

			markers := s.app.State().Map.Markers
			ids := make([]int, 0, len(markers))
			for id := range markers {
				ids = append(ids, id)
			}
			sort.Ints(ids)

			if jsonOutput {
				type row struct {
					Neighborhood int     `json:"neighborhood"`
					Label        string  `json:"label"`
					Count        int     `json:"count"`
					Radius       float64 `json:"radius"`
				}
				rows := make([]row, 0, len(ids))
				for _, id := range ids {
					m := markers[id]
					rows = append(rows, row{Neighborhood: id, Label: m.Label, Count: m.Count, Radius: m.Radius})
				}
				return printJSON(cmd.OutOrStdout(), rows)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tCOUNT\tRADIUS\tLABEL")
			for _, id := range ids {
				m := markers[id]
				fmt.Fprintf(tw, "%d\t%d\t%.1f\t%s\n", id, m.Count, m.Radius, m.Label)
			}
			return tw.Flush()
		},
	}

	filters.register(cmd)
	cmd.Flags().String("server", "http://localhost:8080", "Base URL of the crimemap server")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func serverFlag(cmd *cobra.Command) string {
	url, _ := cmd.Flags().GetString("server")
	if env := os.Getenv("CRIMEMAP_SERVER"); env != "" && !cmd.Flags().Changed("server") {
		return env
	}
	return url
}

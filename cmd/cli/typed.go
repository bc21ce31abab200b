// cmd/cli/typed.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/and161185/peakflow/internal/api"
	"github.com/and161185/peakflow/internal/convert"
	"github.com/and161185/peakflow/internal/export"
	"github.com/and161185/peakflow/internal/model"
	"github.com/and161185/peakflow/internal/stats"
)

// env carries the per-invocation output settings.
type env struct {
	out    io.Writer
	format string
}

type cmdFunc func(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error

type command struct {
	run    cmdFunc
	public bool // callable without a saved token
}

var commands = map[string]command{
	"register":      {run: cmdRegister, public: true},
	"login":         {run: cmdLogin, public: true},
	"reset-request": {run: cmdResetRequest, public: true},
	"reset-confirm": {run: cmdResetConfirm, public: true},
	"add":           {run: cmdAdd},
	"rm":            {run: cmdRemove},
	"list":          {run: cmdList},
	"summary":       {run: cmdSummary},
	"trend":         {run: cmdTrend},
	"settings":      {run: cmdSettings},
	"export":        {run: cmdExport},
}

// ------- flag helpers -------

// optInt is an int flag that remembers whether it was given.
type optInt struct {
	v   int
	set bool
}

func (o *optInt) String() string {
	if o == nil || !o.set {
		return ""
	}
	return strconv.Itoa(o.v)
}

func (o *optInt) Set(s string) error {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("not an integer: %q", s)
	}
	o.v, o.set = v, true
	return nil
}

func (o *optInt) ptr() *int {
	if !o.set {
		return nil
	}
	return model.IntPtr(o.v)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// localTZ returns the IANA name of the local zone, or "" to let the server decide.
func localTZ() string {
	if tz := os.Getenv("TZ"); tz != "" {
		return strings.TrimPrefix(tz, ":")
	}
	if name := time.Local.String(); name != "Local" {
		return name
	}
	return ""
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// ------- auth -------

func cmdRegister(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("register")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -email and -p")
	}
	resp, err := cli.Register(ctx, &api.RegisterRequest{Email: *email, Password: *pass, Name: *name})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, resp.UserID)
		return err
	})
}

func cmdLogin(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email")
	pass := fs.String("p", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *pass == "" {
		return errors.New("need -email and -p")
	}
	resp, err := cli.Login(ctx, &api.LoginRequest{Email: *email, Password: *pass})
	if err != nil {
		return err
	}
	if err := saveToken(resp.AccessToken, tokenExpiry(resp.AccessToken, resp.ExpiresAt), *email); err != nil {
		return err
	}
	_, err = fmt.Fprintln(e.out, "ok")
	return err
}

func cmdResetRequest(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("reset-request")
	email := fs.String("email", "", "email")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("need -email")
	}
	resp, err := cli.RequestPasswordReset(ctx, &api.RequestPasswordResetRequest{Email: *email})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, resp.Message)
		return err
	})
}

func cmdResetConfirm(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("reset-confirm")
	email := fs.String("email", "", "email")
	code := fs.String("code", "", "code from the email")
	pass := fs.String("p", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *code == "" || *pass == "" {
		return errors.New("need -email, -code and -p")
	}
	if _, err := cli.ResetPassword(ctx, &api.ResetPasswordRequest{Email: *email, Code: *code, NewPassword: *pass}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(e.out, "password updated, please login")
	return err
}

// ------- readings -------

func cmdAdd(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("add")
	value := fs.Int("v", 0, "peak flow, L/min")
	var cond, morning, evening optInt
	fs.Var(&cond, "condition", "well-being 1..10")
	fs.Var(&morning, "morning", "morning dose")
	fs.Var(&evening, "evening", "evening dose")
	tz := fs.String("tz", localTZ(), "IANA zone of the reading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *value <= 0 {
		return errors.New("need -v > 0")
	}
	resp, err := cli.AddReading(ctx, &api.AddReadingRequest{
		Value:       *value,
		Condition:   cond.ptr(),
		MorningDose: morning.ptr(),
		EveningDose: evening.ptr(),
		Timezone:    *tz,
	})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error {
		return writeReadings(w, []api.Reading{resp.Reading})
	})
}

func cmdRemove(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("rm")
	id := fs.String("id", "", "reading id (uuid)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" {
		return errors.New("need -id")
	}
	if _, err := cli.DeleteReading(ctx, &api.DeleteReadingRequest{ID: *id}); err != nil {
		return err
	}
	_, err := fmt.Fprintln(e.out, "ok")
	return err
}

func cmdList(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("list")
	from := fs.String("from", "", "first date, YYYY-MM-DD")
	to := fs.String("to", "", "last date, YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := cli.ListReadings(ctx, &api.ListReadingsRequest{From: *from, To: *to})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error {
		return writeReadings(w, resp.Readings)
	})
}

// ------- views -------

func cmdSummary(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("summary")
	tz := fs.String("tz", localTZ(), "IANA zone that defines today")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := cli.GetSummary(ctx, &api.GetSummaryRequest{Timezone: *tz})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error { return writeSummary(w, resp) })
}

func cmdTrend(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("trend")
	days := fs.Int("days", 7, "7, 14, 30 or 90")
	tz := fs.String("tz", localTZ(), "IANA zone")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stats.ValidTrendPeriod(*days) {
		return fmt.Errorf("-days must be one of %v", stats.TrendPeriods)
	}
	resp, err := cli.GetTrend(ctx, &api.GetTrendRequest{Days: *days, Timezone: *tz})
	if err != nil {
		return err
	}
	return emit(e.out, e.format, resp, func(w io.Writer) error {
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tPEAK FLOW\tWELL-BEING\tDOSE")
		for _, p := range resp.Points {
			wb := "-"
			if p.WellBeing > 0 {
				wb = fmt.Sprintf("%d (%s)", p.WellBeing, p.WellBeingBand)
			}
			fmt.Fprintf(tw, "%s\t%d\t%s\t%d\n", p.Date, p.PeakFlow, wb, p.TotalDose)
		}
		return tw.Flush()
	})
}

// cmdSettings shows settings, or merges the given flags into them and saves.
func cmdSettings(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("settings")
	var threshold, morning, evening optInt
	fs.Var(&threshold, "threshold", "alert threshold, L/min")
	fs.Var(&morning, "morning", "default morning dose")
	fs.Var(&evening, "evening", "default evening dose")
	name := fs.String("name", "", "display name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cur, err := cli.GetSettings(ctx, &api.GetSettingsRequest{})
	if err != nil {
		return err
	}
	st := cur.Settings
	changed := false
	if threshold.set {
		st.Threshold, changed = threshold.v, true
	}
	if morning.set {
		st.DefaultMorningDose, changed = morning.ptr(), true
	}
	if evening.set {
		st.DefaultEveningDose, changed = evening.ptr(), true
	}
	if *name != "" {
		st.Name, changed = *name, true
	}
	if changed {
		saved, err := cli.SaveSettings(ctx, &api.SaveSettingsRequest{Settings: st})
		if err != nil {
			return err
		}
		st = saved.Settings
	}
	return emit(e.out, e.format, st, func(w io.Writer) error { return writeSettings(w, st) })
}

// cmdExport writes the readings and their averages to an XLSX workbook.
func cmdExport(ctx context.Context, cli api.PeakFlowClient, args []string, e env) error {
	fs := newFlagSet("export")
	file := fs.String("file", "peakflow.xlsx", "output file")
	from := fs.String("from", "", "first date, YYYY-MM-DD")
	to := fs.String("to", "", "last date, YYYY-MM-DD")
	tz := fs.String("tz", localTZ(), "IANA zone for the averages")
	if err := fs.Parse(args); err != nil {
		return err
	}
	resp, err := cli.ListReadings(ctx, &api.ListReadingsRequest{From: *from, To: *to})
	if err != nil {
		return err
	}
	readings, err := convert.FromAPIReadings(resp.Readings)
	if err != nil {
		return err
	}
	loc := time.Local
	if *tz != "" {
		if l, err := time.LoadLocation(*tz); err == nil {
			loc = l
		}
	}
	averages := stats.Averages(readings, time.Now(), loc)

	f, err := os.OpenFile(*file, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	if err := export.WriteXLSX(f, readings, averages); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	_, err = fmt.Fprintf(e.out, "exported %d readings to %s\n", len(readings), *file)
	return err
}

// ------- text rendering -------

func optString(p *int) string {
	if p == nil {
		return "-"
	}
	return strconv.Itoa(*p)
}

func writeReadings(w io.Writer, rs []api.Reading) error {
	if len(rs) == 0 {
		_, err := fmt.Fprintln(w, "no readings")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tL/MIN\tCONDITION\tMORNING\tEVENING")
	for _, r := range rs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.ID, r.Date, choose(r.Time, "-"), r.Value,
			optString(r.Condition), optString(r.MorningDose), optString(r.EveningDose))
	}
	return tw.Flush()
}

func writeSummary(w io.Writer, s *api.GetSummaryResponse) error {
	if s.Settings.Name != "" {
		fmt.Fprintf(w, "Hello, %s\n\n", s.Settings.Name)
	}
	if s.Alert != nil {
		fmt.Fprintf(w, "ALERT: latest reading %d L/min is %d%% of your threshold %d\n\n",
			s.Alert.Value, s.Alert.Percent, s.Alert.Threshold)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tAVERAGE\tREADINGS\tNOTE")
	for _, a := range s.Averages {
		note := ""
		if !a.HasEnoughData {
			note = fmt.Sprintf("needs %d days", a.RequiredDays)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", a.Label, optString(a.Average), a.Count, note)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nToday (%d):\n", len(s.Today))
	if err := writeReadings(w, s.Today); err != nil {
		return err
	}
	fmt.Fprintf(w, "\nRecent:\n")
	return writeReadings(w, s.Recent)
}

func writeSettings(w io.Writer, s api.Settings) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "threshold\t%d\n", s.Threshold)
	fmt.Fprintf(tw, "morning dose\t%s\n", optString(s.DefaultMorningDose))
	fmt.Fprintf(tw, "evening dose\t%s\n", optString(s.DefaultEveningDose))
	fmt.Fprintf(tw, "name\t%s\n", choose(s.Name, "-"))
	return tw.Flush()
}

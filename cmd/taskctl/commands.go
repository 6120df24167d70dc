package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/example/task-manager/client"
	"github.com/example/task-manager/client/session"
	"github.com/example/task-manager/domain/task"
	"github.com/example/task-manager/domain/user"
	"github.com/example/task-manager/tasklist"
)

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register": {"create an account and sign in", runRegister},
	"login":    {"sign in", runLogin},
	"logout":   {"forget the stored session", runLogout},
	"profile":  {"show the signed-in account", runProfile},
	"list":     {"list tasks (--refresh, --status, --priority, --week, --clear)", runList},
	"show":     {"show one task", runShow},
	"add":      {"create a task", runAdd},
	"edit":     {"change fields of a task", runEdit},
	"rm":       {"delete a task", runRemove},
	"activity": {"show recent task activity", runActivity},
}

var commandOrder = []string{
	"register", "login", "logout", "profile",
	"list", "show", "add", "edit", "rm", "activity",
}

func newFlags(name string) *pflag.FlagSet {
	return pflag.NewFlagSet(name, pflag.ContinueOnError)
}

func runRegister(ctx context.Context, a *app, args []string) error {
	fs := newFlags("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password (at least 8 characters)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.sess = session.Session{Server: a.cfg.Server, Email: *email}
	profile, err := a.api.Register(ctx, *name, *email, *password)
	if err != nil {
		return err
	}
	if err := a.snap.Save(ctx, tasklist.NewState(nil, tasklist.NoFilter())); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered %s (%s)\n", profile.UserName, profile.Email)
	return nil
}

func runLogin(ctx context.Context, a *app, args []string) error {
	fs := newFlags("login")
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	previous := a.sess.Email
	a.sess = session.Session{Server: a.cfg.Server, Email: *email}
	if err := a.api.Login(ctx, *email, *password); err != nil {
		return err
	}
	// Another account's tasks must not show up in the list.
	if !strings.EqualFold(previous, *email) {
		if err := a.snap.Save(ctx, tasklist.NewState(nil, tasklist.NoFilter())); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "Logged in as %s\n", *email)
	return nil
}

func runLogout(ctx context.Context, a *app, _ []string) error {
	if err := a.sessions.Clear(); err != nil {
		return err
	}
	if err := a.snap.Save(ctx, tasklist.NewState(nil, tasklist.NoFilter())); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out")
	return nil
}

func runProfile(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	p, err := a.api.Profile(ctx)
	if err != nil {
		return err
	}
	printProfile(a, p)
	return nil
}

func printProfile(a *app, p *user.Profile) {
	w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "Name:\t%s\n", p.UserName)
	fmt.Fprintf(w, "Email:\t%s\n", p.Email)
	fmt.Fprintf(w, "Member since:\t%s\n", p.CreatedAt.Local().Format("Jan 2, 2006"))
	w.Flush()
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := newFlags("list")
	refresh := fs.Bool("refresh", false, "fetch the list from the server")
	status := fs.String("status", "", statusChoices()+" or All")
	priority := fs.String("priority", "", priorityChoices()+" or All")
	week := fs.String("week", "", "any date (YYYY-MM-DD) in the week to show")
	clearFilters := fs.Bool("clear", false, "reset all filters")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	st, err := a.snap.Load(ctx)
	if err != nil {
		return err
	}

	f := st.Filter()
	if *clearFilters {
		f = tasklist.NoFilter()
	}
	if fs.Changed("status") {
		if f.Status, err = tasklist.ParseStatus(*status); err != nil {
			return err
		}
	}
	if fs.Changed("priority") {
		if f.Priority, err = tasklist.ParsePriority(*priority); err != nil {
			return err
		}
	}
	if fs.Changed("week") {
		if f.Week, err = tasklist.ParseWeek(*week); err != nil {
			return err
		}
	}
	st = st.WithFilter(f)

	if *refresh || st.Len() == 0 {
		profile, tasks, err := a.fetchAll(ctx)
		if err != nil {
			return err
		}
		st = st.Apply(tasklist.Loaded{Tasks: tasks})
		fmt.Fprintf(a.out, "Tasks for %s\n", profile.UserName)
	}

	if err := a.snap.Save(ctx, st); err != nil {
		return err
	}
	printList(a, st)
	return nil
}

// fetchAll loads the profile and the full task list concurrently.
func (a *app) fetchAll(ctx context.Context) (*user.Profile, []task.Task, error) {
	var (
		profile *user.Profile
		tasks   []task.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := a.api.Profile(gctx)
		profile = p
		return err
	})
	g.Go(func() error {
		ts, err := a.api.ListTasks(gctx, tasklist.NoFilter())
		tasks = ts
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return profile, tasks, nil
}

func printList(a *app, st tasklist.State) {
	f := st.Filter()
	if f.Week != nil {
		fmt.Fprintln(a.out, f.Week.Label())
	}

	visible := st.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(a.out, "No tasks")
	} else {
		today := task.Today()
		w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTITLE\tDUE\tSTATUS\tPRIORITY")
		for _, t := range visible {
			due := t.DueDate.String()
			if tasklist.IsOverdue(t, today) {
				due += " (overdue)"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", shortID(t.ID), t.Title, due, t.Status, t.Priority)
		}
		w.Flush()
	}

	if f.Active() {
		fmt.Fprintf(a.out, "Showing %d of %d tasks; use --clear to reset filters\n", len(visible), st.Len())
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}

// minPartialID is the shortest argument matched against part of an id.
// Shorter ones only match exactly.
const minPartialID = 4

// resolveID expands a shortened id against the snapshot. Unknown ids are
// passed through for the server to judge.
func resolveID(st tasklist.State, arg string) (string, error) {
	if strings.TrimSpace(arg) == "" {
		return "", errors.New("task id must not be empty")
	}
	if _, ok := tasklist.Find(st.Tasks(), arg); ok {
		return arg, nil
	}
	partial := len(arg) >= minPartialID

	var match string
	for _, t := range st.Tasks() {
		if partial && (strings.HasSuffix(t.ID, arg) || strings.HasPrefix(t.ID, arg)) {
			if match != "" && match != t.ID {
				return "", fmt.Errorf("id %q is ambiguous", arg)
			}
			match = t.ID
		}
	}
	if match == "" {
		return arg, nil
	}
	return match, nil
}

func oneID(fs *pflag.FlagSet) (string, error) {
	if fs.NArg() != 1 {
		return "", errors.New("expected exactly one task id")
	}
	if strings.TrimSpace(fs.Arg(0)) == "" {
		return "", errors.New("task id must not be empty")
	}
	return fs.Arg(0), nil
}

func runShow(ctx context.Context, a *app, args []string) error {
	fs := newFlags("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	arg, err := oneID(fs)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	st, err := a.snap.Load(ctx)
	if err != nil {
		return err
	}
	id, err := resolveID(st, arg)
	if err != nil {
		return err
	}

	t, err := a.api.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := a.snap.Save(ctx, st.Apply(tasklist.Updated{Task: *t})); err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	fmt.Fprintf(w, "ID:\t%s\n", t.ID)
	fmt.Fprintf(w, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(w, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(w, "Due:\t%s (%s)\n", t.DueDate, dueText(*t, time.Now()))
	fmt.Fprintf(w, "Status:\t%s\n", t.Status)
	fmt.Fprintf(w, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(w, "Created:\t%s\n", t.CreatedDate.Local().Format(time.DateTime))
	fmt.Fprintf(w, "Updated:\t%s\n", t.LastUpdateDate.Local().Format(time.DateTime))
	return w.Flush()
}

func statusChoices() string {
	names := make([]string, len(task.Statuses))
	for i, s := range task.Statuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

func priorityChoices() string {
	names := make([]string, len(task.Priorities))
	for i, p := range task.Priorities {
		names[i] = string(p)
	}
	return strings.Join(names, ", ")
}

func dueText(t task.Task, now time.Time) string {
	if tasklist.IsOverdue(t, task.DateOf(now)) {
		return "overdue"
	}
	switch n := tasklist.DueIn(t, now); {
	case n == 0:
		return "due today"
	case n == 1:
		return "due tomorrow"
	case n > 1:
		return fmt.Sprintf("due in %d days", n)
	default:
		return fmt.Sprintf("%d days ago", -n)
	}
}

func runAdd(ctx context.Context, a *app, args []string) error {
	fs := newFlags("add")
	title := fs.String("title", "", "task title")
	description := fs.String("description", "", "task description")
	due := fs.String("due", "", "due date (YYYY-MM-DD)")
	status := fs.String("status", "", "initial status: "+statusChoices()+" (default Pending)")
	priority := fs.String("priority", "", "priority: "+priorityChoices()+" (default Medium)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	d := task.Draft{
		Title:       *title,
		Description: *description,
		Status:      task.Status(*status),
		Priority:    task.Priority(*priority),
	}
	if *due != "" {
		date, err := task.ParseDate(*due)
		if err != nil {
			return err
		}
		d.DueDate = date
	}

	st, err := a.snap.Load(ctx)
	if err != nil {
		return err
	}
	created, err := a.api.CreateTask(ctx, d)
	if err != nil {
		return err
	}
	st = st.Apply(tasklist.Created{Task: *created})
	if err := a.snap.Save(ctx, st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created %s %q\n", shortID(created.ID), created.Title)
	return nil
}

func runEdit(ctx context.Context, a *app, args []string) error {
	fs := newFlags("edit")
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	due := fs.String("due", "", "new due date (YYYY-MM-DD)")
	status := fs.String("status", "", "new status: "+statusChoices())
	priority := fs.String("priority", "", "new priority: "+priorityChoices())
	if err := fs.Parse(args); err != nil {
		return err
	}
	arg, err := oneID(fs)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	var p task.Patch
	if fs.Changed("title") {
		p.Title = title
	}
	if fs.Changed("description") {
		p.Description = description
	}
	if fs.Changed("due") {
		date, err := task.ParseDate(*due)
		if err != nil {
			return err
		}
		p.DueDate = &date
	}
	if fs.Changed("status") {
		s := task.Status(*status)
		p.Status = &s
	}
	if fs.Changed("priority") {
		pr := task.Priority(*priority)
		p.Priority = &pr
	}
	if p.Empty() {
		return errors.New("nothing to change; pass at least one of --title, --description, --due, --status, --priority")
	}

	st, err := a.snap.Load(ctx)
	if err != nil {
		return err
	}
	id, err := resolveID(st, arg)
	if err != nil {
		return err
	}

	updated, err := a.api.UpdateTask(ctx, id, p)
	if err != nil {
		return err
	}
	st = st.Apply(tasklist.Updated{Task: *updated})
	if err := a.snap.Save(ctx, st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated %s: %s\n", shortID(updated.ID), strings.Join(p.Fields(), ", "))
	return nil
}

func runRemove(ctx context.Context, a *app, args []string) error {
	fs := newFlags("rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	arg, err := oneID(fs)
	if err != nil {
		return err
	}
	if err := a.requireSession(); err != nil {
		return err
	}

	st, err := a.snap.Load(ctx)
	if err != nil {
		return err
	}
	id, err := resolveID(st, arg)
	if err != nil {
		return err
	}

	st, err = st.Commit(tasklist.Deleted{ID: id}, a.api.DeleteTask(ctx, id))
	if err != nil {
		return err
	}
	if err := a.snap.Save(ctx, st); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", shortID(id))
	return nil
}

func runActivity(ctx context.Context, a *app, _ []string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	entries, err := a.api.Activity(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No recent activity")
		return nil
	}

	w := tabwriter.NewWriter(a.out, 0, 2, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\n", e.At.Local().Format("Jan 2 15:04"), e.Message)
	}
	return w.Flush()
}

func (a *app) requireSession() error {
	if a.api.Tokens().Token == "" {
		return client.ErrNotLoggedIn
	}
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"github.com/nkiryanov/jobboard/internal/client"
	"github.com/nkiryanov/jobboard/internal/models"
	"github.com/nkiryanov/jobboard/internal/session"
)

type app struct {
	client  *client.Client
	session *session.Manager
	out     io.Writer
}

type command struct {
	help string
	run  func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"register":            {"Create account and log in", register},
	"login":               {"Log in with email and password", login},
	"send-otp":            {"Send one-time login code to email", sendOTP},
	"login-otp":           {"Log in with one-time code", loginOTP},
	"logout":              {"Log out", logout},
	"whoami":              {"Show current user", whoami},
	"change-password":     {"Change password", changePassword},
	"jobs":                {"List active jobs (--own for company jobs)", listJobs},
	"post-job":            {"Post a job (company)", postJob},
	"delete-job":          {"Delete own job: delete-job <id>", deleteJob},
	"apply":               {"Apply to job: apply <job id>", apply},
	"applications":        {"List applications (--company for received ones)", applications},
	"status":              {"Update application status: status <application id> <status>", updateStatus},
	"subscribe":           {"Buy subscription (company)", subscribe},
	"subscription":        {"Show subscription (company)", subscription},
	"cancel-subscription": {"Cancel subscription (company)", cancelSubscription},
}

func newFlags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// Parse flags and check required ones are set
func parse(fs *pflag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return err
	}
	for _, name := range required {
		if !fs.Changed(name) {
			return fmt.Errorf("--%s is required", name)
		}
	}
	return nil
}

// Positional argument parsed as uuid
func idArg(fs *pflag.FlagSet, i int, what string) (uuid.UUID, error) {
	if fs.NArg() <= i {
		return uuid.Nil, fmt.Errorf("%s is required", what)
	}
	id, err := uuid.Parse(fs.Arg(i))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", what, err)
	}
	return id, nil
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) loggedIn(l client.Login) error {
	if err := a.session.Login(l.AccessToken, l.Role); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return a.print(l.User)
}

func register(ctx context.Context, a *app, args []string) error {
	var r client.RegisterRequest
	var role string

	fs := newFlags("register")
	fs.StringVar(&r.FirstName, "first-name", "", "First name")
	fs.StringVar(&r.LastName, "last-name", "", "Last name")
	fs.StringVar(&r.Email, "email", "", "Email")
	fs.StringVar(&r.Password, "password", "", "Password")
	fs.StringVar(&role, "role", string(models.RoleJobseeker), "Role (jobseeker, company)")
	if err := parse(fs, args, "first-name", "last-name", "email", "password"); err != nil {
		return err
	}
	r.Role = models.Role(role)

	l, err := a.client.Register(ctx, r)
	if err != nil {
		return err
	}
	return a.loggedIn(l)
}

func login(ctx context.Context, a *app, args []string) error {
	var email, password string

	fs := newFlags("login")
	fs.StringVar(&email, "email", "", "Email")
	fs.StringVar(&password, "password", "", "Password")
	if err := parse(fs, args, "email", "password"); err != nil {
		return err
	}

	l, err := a.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	return a.loggedIn(l)
}

func sendOTP(ctx context.Context, a *app, args []string) error {
	var email string

	fs := newFlags("send-otp")
	fs.StringVar(&email, "email", "", "Email")
	if err := parse(fs, args, "email"); err != nil {
		return err
	}

	if err := a.client.SendOTP(ctx, email); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "Code sent to", email)
	return err
}

func loginOTP(ctx context.Context, a *app, args []string) error {
	var email, code string

	fs := newFlags("login-otp")
	fs.StringVar(&email, "email", "", "Email")
	fs.StringVar(&code, "code", "", "One-time code")
	if err := parse(fs, args, "email", "code"); err != nil {
		return err
	}

	l, err := a.client.LoginOTP(ctx, email, code)
	if err != nil {
		return err
	}
	return a.loggedIn(l)
}

func logout(ctx context.Context, a *app, _ []string) error {
	if !a.session.State().Authenticated {
		return errors.New("not logged in")
	}

	// Local session is dropped even if server is not reachable
	err := a.client.Logout(ctx)
	if a.session.State().Authenticated {
		a.session.Logout("Logged out")
	}
	return err
}

func whoami(ctx context.Context, a *app, _ []string) error {
	u, err := a.client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	return a.print(u)
}

func changePassword(ctx context.Context, a *app, args []string) error {
	var oldPassword, newPassword string

	fs := newFlags("change-password")
	fs.StringVar(&oldPassword, "old", "", "Current password")
	fs.StringVar(&newPassword, "new", "", "New password")
	if err := parse(fs, args, "old", "new"); err != nil {
		return err
	}

	if err := a.client.ChangePassword(ctx, oldPassword, newPassword); err != nil {
		return err
	}
	_, err := fmt.Fprintln(a.out, "Password changed")
	return err
}

func listJobs(ctx context.Context, a *app, args []string) error {
	var own bool

	fs := newFlags("jobs")
	fs.BoolVar(&own, "own", false, "List jobs posted by current company")
	if err := parse(fs, args); err != nil {
		return err
	}

	var jobs []client.Job
	var err error
	if own {
		jobs, err = a.client.ListOwnJobs(ctx)
	} else {
		jobs, err = a.client.ListJobs(ctx)
	}
	if err != nil {
		return err
	}
	return a.print(jobs)
}

func postJob(ctx context.Context, a *app, args []string) error {
	var job client.Job
	var deadline string

	fs := newFlags("post-job")
	fs.StringVar(&job.Title, "title", "", "Title")
	fs.StringVar(&job.CompanyName, "company", "", "Company name")
	fs.StringVar(&job.Location, "location", "", "Location")
	fs.StringVar(&job.JobType, "type", "Full-time", "Job type")
	fs.StringVar(&job.ExperienceLevel, "level", "Mid-level", "Experience level")
	fs.StringVar(&job.SalaryRange, "salary", "", "Salary range")
	fs.StringVar(&job.ContactEmail, "contact", "", "Contact email")
	fs.StringVar(&deadline, "deadline", "", "Application deadline, YYYY-MM-DD")
	fs.StringVar(&job.Description, "description", "", "Description")
	fs.StringSliceVar(&job.Skills, "skills", nil, "Skills, comma separated")
	fs.StringSliceVar(&job.Requirements, "requirements", nil, "Requirements, comma separated")
	fs.StringSliceVar(&job.Benefits, "benefits", nil, "Benefits, comma separated")
	if err := parse(fs, args, "title", "company", "location", "deadline", "description"); err != nil {
		return err
	}

	d, err := time.Parse(time.DateOnly, deadline)
	if err != nil {
		return fmt.Errorf("invalid deadline: %w", err)
	}
	job.ApplicationDeadline = d

	created, err := a.client.PostJob(ctx, job)
	if err != nil {
		return err
	}
	return a.print(created)
}

func deleteJob(ctx context.Context, a *app, args []string) error {
	fs := newFlags("delete-job")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs, 0, "job id")
	if err != nil {
		return err
	}

	if err := a.client.DeleteJob(ctx, id); err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, "Job deleted")
	return err
}

func apply(ctx context.Context, a *app, args []string) error {
	fs := newFlags("apply")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs, 0, "job id")
	if err != nil {
		return err
	}

	application, err := a.client.Apply(ctx, id)
	if err != nil {
		return err
	}
	return a.print(application)
}

func applications(ctx context.Context, a *app, args []string) error {
	var company bool

	fs := newFlags("applications")
	fs.BoolVar(&company, "company", false, "List applications to current company jobs")
	if err := parse(fs, args); err != nil {
		return err
	}

	var apps []client.Application
	var err error
	if company {
		apps, err = a.client.CompanyApplications(ctx)
	} else {
		apps, err = a.client.MyApplications(ctx)
	}
	if err != nil {
		return err
	}
	return a.print(apps)
}

func updateStatus(ctx context.Context, a *app, args []string) error {
	fs := newFlags("status")
	if err := parse(fs, args); err != nil {
		return err
	}
	id, err := idArg(fs, 0, "application id")
	if err != nil {
		return err
	}
	if fs.NArg() < 2 {
		return errors.New("status is required")
	}

	application, err := a.client.UpdateStatus(ctx, id, models.ApplicationStatus(fs.Arg(1)))
	if err != nil {
		return err
	}
	return a.print(application)
}

func subscribe(ctx context.Context, a *app, args []string) error {
	var paymentID, amount string

	fs := newFlags("subscribe")
	fs.StringVar(&paymentID, "payment-id", "", "Payment reference")
	fs.StringVar(&amount, "amount", "", "Paid amount")
	if err := parse(fs, args, "payment-id", "amount"); err != nil {
		return err
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return fmt.Errorf("invalid amount: %w", err)
	}

	sub, err := a.client.CreateSubscription(ctx, paymentID, value)
	if err != nil {
		return err
	}
	return a.print(sub)
}

func subscription(ctx context.Context, a *app, _ []string) error {
	sub, err := a.client.GetSubscription(ctx)
	if err != nil {
		return err
	}
	return a.print(sub)
}

func cancelSubscription(ctx context.Context, a *app, _ []string) error {
	sub, err := a.client.CancelSubscription(ctx)
	if err != nil {
		return err
	}
	return a.print(sub)
}

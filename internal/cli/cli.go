// Package cli drives the interactive command loop. It owns tokenizing,
// arity checks and the fixed user-facing messages; all scheduling semantics
// live behind the Engine and Identity interfaces.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"

	"vaccine-scheduler-api/internal/engine"
	"vaccine-scheduler-api/internal/identity"
	"vaccine-scheduler-api/internal/model"
)

type Engine interface {
	Reserve(ctx context.Context, sess model.Session, date, vaccineName string) (*engine.Reservation, error)
	Cancel(ctx context.Context, sess model.Session, appointmentID int) error
	SearchSchedule(ctx context.Context, sess model.Session, date string) ([]engine.ScheduleEntry, error)
	ShowAppointments(ctx context.Context, sess model.Session) ([]model.Appointment, error)
	UploadAvailability(ctx context.Context, sess model.Session, date string) error
	AddDoses(ctx context.Context, sess model.Session, vaccineName string, amount int) error
}

type Identity interface {
	CreatePatient(ctx context.Context, username, password string) (string, error)
	CreateCaregiver(ctx context.Context, username, password string) (string, error)
	LoginPatient(ctx context.Context, username, password string) (string, error)
	LoginCaregiver(ctx context.Context, username, password string) (string, error)
	SessionFromToken(raw string) (model.Session, error)
}

// Loop reads commands until quit or EOF. The session token issued by the
// Identity service is the only login state it keeps; the acting principal
// is re-derived from it before every command.
type Loop struct {
	engine   Engine
	identity Identity
	in       io.Reader
	out      io.Writer
	token    string
}

func NewLoop(e Engine, id Identity, in io.Reader, out io.Writer) *Loop {
	return &Loop{engine: e, identity: id, in: in, out: out}
}

const menu = `
Welcome to the COVID-19 Vaccine Reservation Scheduling Application!
*** Please enter one of the following commands ***
> create_patient <username> <password>
> create_caregiver <username> <password>
> login_patient <username> <password>
> login_caregiver <username> <password>
> search_caregiver_schedule <date>
> reserve <date> <vaccine>
> upload_availability <date>
> cancel <appointment_id>
> add_doses <vaccine> <number>
> show_appointments
> logout
> quit
`

func (l *Loop) Run(ctx context.Context) error {
	fmt.Fprint(l.out, menu)

	sc := bufio.NewScanner(l.in)
	for {
		fmt.Fprint(l.out, "> ")
		if !sc.Scan() {
			return sc.Err()
		}
		tokens := strings.Fields(sc.Text())
		if len(tokens) == 0 {
			fmt.Fprintln(l.out, "Please try again!")
			continue
		}

		switch tokens[0] {
		case "create_patient":
			l.createUser(ctx, tokens, model.RolePatient)
		case "create_caregiver":
			l.createUser(ctx, tokens, model.RoleCaregiver)
		case "login_patient":
			l.login(ctx, tokens, model.RolePatient)
		case "login_caregiver":
			l.login(ctx, tokens, model.RoleCaregiver)
		case "search_caregiver_schedule":
			l.searchSchedule(ctx, tokens)
		case "reserve":
			l.reserve(ctx, tokens)
		case "upload_availability":
			l.uploadAvailability(ctx, tokens)
		case "cancel":
			l.cancel(ctx, tokens)
		case "add_doses":
			l.addDoses(ctx, tokens)
		case "show_appointments":
			l.showAppointments(ctx, tokens)
		case "logout":
			l.logout(tokens)
		case "quit":
			fmt.Fprintln(l.out, "Bye!")
			return nil
		default:
			fmt.Fprintln(l.out, "Invalid operation name!")
		}
	}
}

// session rebuilds the acting principal from the held token. An expired or
// unparsable token means the principal is gone, not an error.
func (l *Loop) session() model.Session {
	if l.token == "" {
		return model.Session{}
	}
	sess, err := l.identity.SessionFromToken(l.token)
	if err != nil {
		l.token = ""
		return model.Session{}
	}
	return sess
}

func (l *Loop) createUser(ctx context.Context, tokens []string, role model.Role) {
	if len(tokens) != 3 {
		fmt.Fprintln(l.out, "Failed to create user.")
		return
	}
	username, password := tokens[1], tokens[2]

	var tok string
	var err error
	if role == model.RolePatient {
		tok, err = l.identity.CreatePatient(ctx, username, password)
	} else {
		tok, err = l.identity.CreateCaregiver(ctx, username, password)
	}
	if errors.Is(err, identity.ErrUsernameTaken) {
		fmt.Fprintln(l.out, "Username taken, try again!")
		return
	}
	if err != nil {
		log.Printf("create user: %v", err)
		fmt.Fprintln(l.out, "Failed to create user.")
		return
	}
	l.token = tok
	fmt.Fprintln(l.out, "Created user "+username)
}

func (l *Loop) login(ctx context.Context, tokens []string, role model.Role) {
	if l.session().Active() {
		fmt.Fprintln(l.out, "User already logged in.")
		return
	}
	if len(tokens) != 3 {
		fmt.Fprintln(l.out, "Login failed.")
		return
	}
	username, password := tokens[1], tokens[2]

	var tok string
	var err error
	if role == model.RolePatient {
		tok, err = l.identity.LoginPatient(ctx, username, password)
	} else {
		tok, err = l.identity.LoginCaregiver(ctx, username, password)
	}
	if err != nil {
		if !errors.Is(err, identity.ErrBadCredentials) && !errors.Is(err, identity.ErrThrottled) {
			log.Printf("login: %v", err)
		}
		fmt.Fprintln(l.out, "Login failed.")
		return
	}
	l.token = tok
	fmt.Fprintln(l.out, "Logged in as: "+username)
}

func (l *Loop) searchSchedule(ctx context.Context, tokens []string) {
	sess := l.session()
	if !sess.Active() {
		fmt.Fprintln(l.out, "Please login first!")
		return
	}
	if len(tokens) != 2 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	entries, err := l.engine.SearchSchedule(ctx, sess, tokens[1])
	if errors.Is(err, engine.ErrInvalidDate) {
		fmt.Fprintln(l.out, "Please enter a valid date!")
		return
	}
	if err != nil {
		log.Printf("search schedule: %v", err)
		fmt.Fprintln(l.out, "Please try again!")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(l.out, "Caregiver name: %s Vaccine name: %s Vaccine doses: %d\n",
			e.Caregiver, e.VaccineName, e.Doses)
	}
}

func (l *Loop) reserve(ctx context.Context, tokens []string) {
	sess := l.session()
	if sess.Role == model.RoleCaregiver {
		fmt.Fprintln(l.out, "Please login as a patient!")
		return
	}
	if !sess.Active() {
		fmt.Fprintln(l.out, "Please login first!")
		return
	}
	if len(tokens) != 3 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	res, err := l.engine.Reserve(ctx, sess, tokens[1], tokens[2])
	switch {
	case err == nil:
		fmt.Fprintf(l.out, "Appointment ID: {%d}, Caregiver username: {%s}\n",
			res.AppointmentID, res.Caregiver)
	case errors.Is(err, engine.ErrInvalidDate):
		fmt.Fprintln(l.out, "Please enter a valid date!")
	case errors.Is(err, engine.ErrNoCaregiverAvailable), errors.Is(err, engine.ErrVaccineNotFound):
		fmt.Fprintln(l.out, "No Caregiver is available!")
	case errors.Is(err, engine.ErrInsufficientDoses):
		fmt.Fprintln(l.out, "Not enough available doses!")
	default:
		log.Printf("reserve: %v", err)
		fmt.Fprintln(l.out, "Please try again!")
	}
}

func (l *Loop) uploadAvailability(ctx context.Context, tokens []string) {
	sess := l.session()
	if sess.Role != model.RoleCaregiver {
		fmt.Fprintln(l.out, "Please login as a caregiver first!")
		return
	}
	if len(tokens) != 2 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	err := l.engine.UploadAvailability(ctx, sess, tokens[1])
	switch {
	case err == nil:
		fmt.Fprintln(l.out, "Availability uploaded!")
	case errors.Is(err, engine.ErrInvalidDate):
		fmt.Fprintln(l.out, "Please enter a valid date!")
	default:
		log.Printf("upload availability: %v", err)
		fmt.Fprintln(l.out, "Error occurred when uploading availability")
	}
}

func (l *Loop) cancel(ctx context.Context, tokens []string) {
	sess := l.session()
	if !sess.Active() {
		fmt.Fprintln(l.out, "Please login first!")
		return
	}
	if len(tokens) != 2 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}
	id, err := strconv.Atoi(tokens[1])
	if err != nil {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	err = l.engine.Cancel(ctx, sess, id)
	switch {
	case err == nil:
		fmt.Fprintln(l.out, "Appointment successfully canceled!")
	case errors.Is(err, engine.ErrAppointmentNotFound), errors.Is(err, engine.ErrForbidden):
		fmt.Fprintln(l.out, "Please try again!")
	default:
		log.Printf("cancel: %v", err)
		fmt.Fprintln(l.out, "Please try again!")
	}
}

func (l *Loop) addDoses(ctx context.Context, tokens []string) {
	sess := l.session()
	if sess.Role != model.RoleCaregiver {
		fmt.Fprintln(l.out, "Please login as a caregiver first!")
		return
	}
	if len(tokens) != 3 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}
	amount, err := strconv.Atoi(tokens[2])
	if err != nil {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	err = l.engine.AddDoses(ctx, sess, tokens[1], amount)
	switch {
	case err == nil:
		fmt.Fprintln(l.out, "Doses updated!")
	case errors.Is(err, engine.ErrInvalidAmount):
		fmt.Fprintln(l.out, "Please try again!")
	default:
		log.Printf("add doses: %v", err)
		fmt.Fprintln(l.out, "Error occurred when adding doses")
	}
}

func (l *Loop) showAppointments(ctx context.Context, tokens []string) {
	sess := l.session()
	if !sess.Active() {
		fmt.Fprintln(l.out, "Please login first!")
		return
	}
	if len(tokens) != 1 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}

	appts, err := l.engine.ShowAppointments(ctx, sess)
	if err != nil {
		log.Printf("show appointments: %v", err)
		fmt.Fprintln(l.out, "Please try again!")
		return
	}
	for _, a := range appts {
		if sess.Role == model.RoleCaregiver {
			fmt.Fprintf(l.out, "Appointment ID: %d Vaccine name: %s Date: %s Patient name: %s\n",
				a.ID, a.VaccineName, a.Date.Format(engine.DateLayout), a.PatientUsername)
		} else {
			fmt.Fprintf(l.out, "Appointment ID: %d Vaccine name: %s Date: %s Caregiver name: %s\n",
				a.ID, a.VaccineName, a.Date.Format(engine.DateLayout), a.CaregiverUsername)
		}
	}
}

func (l *Loop) logout(tokens []string) {
	if !l.session().Active() {
		fmt.Fprintln(l.out, "Please login first.")
		return
	}
	if len(tokens) != 1 {
		fmt.Fprintln(l.out, "Please try again!")
		return
	}
	l.token = ""
	fmt.Fprintln(l.out, "Successfully logged out!")
}

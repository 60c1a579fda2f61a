package core

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"lessonvisit/internal/validation"
	"lessonvisit/pkg/schema"
)

// Locker guards the record store during an interactive session.
type Locker interface {
	Acquire() error
	Release() error
}

// CLISession drives an edit session from line commands:
//
//	year 7
//	topic singing
//	date 2026-03-05
//	examiners history,pedagogy
//	show
//	save
//	quit
type CLISession struct {
	Editor   *Editor
	Session  *Session
	Lock     Locker
	Location *time.Location // dates are parsed in this zone
	Prompt   string         // printed before each command; empty for piped input

	in  io.Reader
	out io.Writer
}

// NewCLISession creates a CLI session for session. A nil lock disables
// locking.
func NewCLISession(editor *Editor, session *Session, lock Locker, in io.Reader, out io.Writer) *CLISession {
	return &CLISession{
		Editor:   editor,
		Session:  session,
		Lock:     lock,
		Location: time.Local,
		Prompt:   "> ",
		in:       in,
		out:      out,
	}
}

// Run reads commands until the record is saved, the user quits or input
// ends. Refused values are reported and the loop continues.
func (c *CLISession) Run(ctx context.Context) (err error) {
	if c.Lock != nil {
		if err := c.Lock.Acquire(); err != nil {
			return &LockError{Operation: "acquire", Message: "records are in use", Err: err}
		}
		defer func() {
			if relErr := c.Lock.Release(); relErr != nil && err == nil {
				err = &LockError{Operation: "release", Message: "could not release lock", Err: relErr}
			}
		}()
	}

	c.show()
	scanner := bufio.NewScanner(c.in)
	for {
		fmt.Fprint(c.out, c.Prompt)
		if !scanner.Scan() {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		cmd, arg, _ := strings.Cut(strings.TrimSpace(scanner.Text()), " ")
		cmd, arg = strings.ToLower(cmd), strings.TrimSpace(arg)
		switch cmd {
		case "":
			continue
		case "quit", "q":
			fmt.Fprintln(c.out, "Changes discarded.")
			return nil
		case "show":
			c.show()
		case "save":
			done, err := c.save(ctx)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case "year", "topic", "date", "examiners":
			if err := c.set(cmd, arg); err != nil {
				return err
			}
		default:
			fmt.Fprintf(c.out, "Unknown command %q. Commands: year, topic, date, examiners, show, save, quit.\n", cmd)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return nil
}

// set applies one field command. Only unexpected errors are returned; refused
// or malformed values are printed.
func (c *CLISession) set(cmd, arg string) error {
	field, value, err := ParseField(cmd, arg, c.Location)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return nil
	}

	err = c.Session.Set(field, value)
	var valErr *ValidationError
	var unsupported *schema.UnsupportedFieldError
	switch {
	case err == nil:
		fmt.Fprintf(c.out, "%s set.\n", field)
	case errors.As(err, &valErr):
		fmt.Fprintln(c.out, valErr.Message)
	case errors.As(err, &unsupported):
		fmt.Fprintf(c.out, "%s cannot be set for %s visits.\n", field, unsupported.Subject)
	default:
		return fmt.Errorf("set %s: %w", field, err)
	}
	return nil
}

// ParseField maps a command name and its argument to a validated field and
// value. Names are the short command names or the field names themselves.
// Dates are read as YYYY-MM-DD in loc.
func ParseField(name, arg string, loc *time.Location) (validation.Field, any, error) {
	if arg == "" {
		return "", nil, fmt.Errorf("%s needs a value", name)
	}
	switch validation.Field(name) {
	case "year", validation.FieldSchoolYear:
		n, err := strconv.Atoi(arg)
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a school year", arg)
		}
		return validation.FieldSchoolYear, n, nil
	case "topic", validation.FieldLessonTopic:
		return validation.FieldLessonTopic, schema.LessonTopic(arg), nil
	case validation.FieldDate:
		d, err := time.ParseInLocation(time.DateOnly, arg, loc)
		if err != nil {
			return "", nil, fmt.Errorf("%q is not a date (YYYY-MM-DD)", arg)
		}
		return validation.FieldDate, d, nil
	case "examiners", validation.FieldExaminants:
		var roles []schema.ExaminerRole
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				roles = append(roles, schema.ExaminerRole(part))
			}
		}
		return validation.FieldExaminants, roles, nil
	}
	return "", nil, fmt.Errorf("unknown field %q", name)
}

// save commits the draft. It reports whether the session is finished.
func (c *CLISession) save(ctx context.Context) (bool, error) {
	rec, err := c.Editor.Commit(ctx, c.Session)
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		fmt.Fprintf(c.out, "Not saved: %s\n", valErr.Error())
		return false, nil
	}
	if err != nil {
		return false, err
	}
	fmt.Fprintf(c.out, "Saved %s.\n", rec.ID)
	return true, nil
}

func (c *CLISession) show() {
	fmt.Fprint(c.out, FormatRecord(c.Session.Draft))
}

// FormatRecord renders a record as aligned "field: value" lines.
func FormatRecord(rec schema.AttendanceRecord) string {
	id := rec.ID
	if id == "" {
		id = "(new)"
	}
	date := "-"
	if !rec.Date.IsZero() {
		date = rec.Date.Format(time.DateOnly)
	}
	roles := make([]string, 0, len(rec.Examiners))
	for _, r := range rec.Roles() {
		roles = append(roles, string(r))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "id:          %s\n", id)
	fmt.Fprintf(&b, "subject:     %s\n", rec.Subject)
	fmt.Fprintf(&b, "school year: %s\n", orDash(string(rec.SchoolYear)))
	if rec.Subject == schema.SubjectMusic {
		fmt.Fprintf(&b, "topic:       %s\n", orDash(string(rec.LessonTopic)))
	}
	fmt.Fprintf(&b, "date:        %s\n", date)
	fmt.Fprintf(&b, "examiners:   %s\n", orDash(strings.Join(roles, ", ")))
	return b.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

package command

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/aimentor/internal/expert"
	"github.com/abhisek/aimentor/internal/logger"
	"github.com/abhisek/aimentor/internal/store"
)

// Status is the outcome of a single command.
type Status string

const (
	StatusApplied   Status = "applied"
	StatusIgnored   Status = "ignored"
	StatusMalformed Status = "malformed"
)

// Result records what happened to one command of a batch.
type Result struct {
	Command string `json:"command"`
	Status  Status `json:"status"`
	Detail  string `json:"detail,omitempty"`

	// StudentID is set by register_student and login_student to the
	// student the credentials belong to.
	StudentID int64 `json:"student_id,omitempty"`
}

type handler func(ctx context.Context, studentID int64, c Command) (Result, error)

// Executor applies commands to student and account state. Which commands
// are honored depends on the expert that produced them.
type Executor struct {
	students store.StudentRepo
	accounts store.AccountRepo
	log      *logger.Logger
	hashCost int

	allowed map[expert.Expert]map[string]handler
}

// NewExecutor creates an executor over the given repositories.
func NewExecutor(students store.StudentRepo, accounts store.AccountRepo, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Executor{
		students: students,
		accounts: accounts,
		log:      log,
		hashCost: bcrypt.DefaultCost,
	}
	e.allowed = map[expert.Expert]map[string]handler{
		expert.Registrator: {
			RegisterStudent:    e.register,
			LoginStudent:       e.login,
			SwitchToNextExpert: e.switchExpert,
		},
		expert.Interview: {
			UpdateStudentBackground: e.updateBackground,
			SwitchToNextExpert:      e.switchExpert,
		},
		expert.Teacher: {
			ChangeEduContent:   e.changeContent,
			SwitchToNextExpert: e.switchExpert,
		},
		expert.Test: {
			ApproveTopic:       e.approve,
			ApproveBlock:       e.approve,
			ApproveChapter:     e.approve,
			SwitchToNextExpert: e.switchExpert,
		},
	}
	return e
}

// Allowed reports the command names honored for turn, in no particular
// order.
func (e *Executor) Allowed(turn expert.Expert) []string {
	names := make([]string, 0, len(e.allowed[turn]))
	for name := range e.allowed[turn] {
		names = append(names, name)
	}
	return names
}

// Execute applies cmds in order under the expert that owned the turn.
// Unknown and malformed commands are recorded and skipped. The first hard
// failure stops the batch; effects of earlier commands stay applied.
func (e *Executor) Execute(ctx context.Context, studentID int64, turn expert.Expert, cmds []Command) ([]Result, error) {
	handlers, ok := e.allowed[turn]
	if !ok {
		return nil, fmt.Errorf("execute commands: unknown expert %q", turn)
	}

	results := make([]Result, 0, len(cmds))
	for _, c := range cmds {
		h, ok := handlers[c.Name]
		if !ok {
			e.log.Warn("ignoring command not available to expert",
				"student_id", studentID, "expert", turn, "command", c.Name)
			results = append(results, Result{Command: c.Name, Status: StatusIgnored,
				Detail: fmt.Sprintf("not available to %s", turn)})
			continue
		}

		res, err := h(ctx, studentID, c)
		var mce *MalformedCommandError
		if errors.As(err, &mce) {
			e.log.Warn("skipping malformed command",
				"student_id", studentID, "expert", turn, "command", c.Name, "error", mce.Err)
			results = append(results, Result{Command: c.Name, Status: StatusMalformed, Detail: mce.Err.Error()})
			continue
		}
		if err != nil {
			e.log.Error("command failed",
				"student_id", studentID, "expert", turn, "command", c.Name, "error", err)
			return results, fmt.Errorf("%s: %w", c.Name, err)
		}

		res.Command = c.Name
		res.Status = StatusApplied
		e.log.Info("command applied",
			"student_id", studentID, "expert", turn, "command", c.Name, "detail", res.Detail)
		results = append(results, res)
	}
	return results, nil
}

func (e *Executor) register(ctx context.Context, _ int64, c Command) (Result, error) {
	p, err := decodeCredentials(c)
	if err != nil {
		return Result{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), e.hashCost)
	if err != nil {
		return Result{}, fmt.Errorf("hash password: %w", err)
	}
	acc, st, err := e.accounts.Register(ctx, p.Login, string(hash))
	if err != nil {
		return Result{}, err
	}
	return Result{
		Detail:    fmt.Sprintf("account %d registered with student %d", acc.ID, st.ID),
		StudentID: st.ID,
	}, nil
}

func (e *Executor) login(ctx context.Context, _ int64, c Command) (Result, error) {
	p, err := decodeCredentials(c)
	if err != nil {
		return Result{}, err
	}
	acc, err := e.accounts.GetByLogin(ctx, p.Login)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, ErrAccountNotFound
	}
	if err != nil {
		return Result{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(p.Password)); err != nil {
		return Result{}, ErrInvalidCredentials
	}

	res := Result{Detail: fmt.Sprintf("account %d verified", acc.ID)}
	if st, err := e.students.GetByAccount(ctx, acc.ID); err == nil {
		res.StudentID = st.ID
	}
	return res, nil
}

func (e *Executor) switchExpert(ctx context.Context, studentID int64, c Command) (Result, error) {
	next, err := decodeSwitch(c)
	if err != nil {
		return Result{}, err
	}
	if err := e.students.SetExpert(ctx, studentID, next); err != nil {
		return Result{}, err
	}
	return Result{Detail: "switched to " + next.String()}, nil
}

func (e *Executor) updateBackground(ctx context.Context, studentID int64, c Command) (Result, error) {
	u, err := decodeBackground(c)
	if err != nil {
		return Result{}, err
	}
	if err := e.students.UpdateProfile(ctx, studentID, u); err != nil {
		return Result{}, err
	}
	return Result{Detail: "profile updated"}, nil
}

func (e *Executor) changeContent(ctx context.Context, studentID int64, c Command) (Result, error) {
	p, err := decodeChangeContent(c)
	if err != nil {
		return Result{}, err
	}
	if err := e.students.SetCurrentContent(ctx, studentID, p); err != nil {
		return Result{}, err
	}
	return Result{Detail: fmt.Sprintf("topic %d, block %d, chapter %d", p.Topic.ID, p.Block.ID, p.Chapter.ID)}, nil
}

func (e *Executor) approve(ctx context.Context, studentID int64, c Command) (Result, error) {
	progress, ref, err := decodeApproval(c)
	if err != nil {
		return Result{}, err
	}
	if err := e.students.Approve(ctx, studentID, progress, ref); err != nil {
		return Result{}, err
	}
	return Result{Detail: fmt.Sprintf("%s += %d", progress, ref.ID)}, nil
}

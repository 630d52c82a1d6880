package talent

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	// errors
	ErrStudentNotFound     = core.NewNotFoundError("student")
	ErrInsufficientBalance = errors.New("balance cannot go below zero")
	ErrZeroAmount          = errors.New("amount cannot be zero")
	errInvalidGrantKind    = errors.New("only manual and game entries can be granted")
)

type (
	Repository interface {
		// LockStudent serializes ledger writes for a student until the end of the transaction.
		LockStudent(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) error
		CreateEntries(ctx context.Context, entries []Entry, exec ...core.DBExecutor) error
		Balance(ctx context.Context, churchID, studentID string, exec ...core.DBExecutor) (int, error)
		// NetByRef sums the entries of a kind referencing refID.
		NetByRef(ctx context.Context, refID, kind string, exec ...core.DBExecutor) (int, error)
		// QueryEntries returns the entries of a student, newest first. limit <= 0 means no limit.
		QueryEntries(ctx context.Context, churchID, studentID string, limit int, exec ...core.DBExecutor) ([]Entry, error)
		// QueryBalances returns the balance of every active student of a church.
		QueryBalances(ctx context.Context, churchID string, exec ...core.DBExecutor) ([]StudentBalance, error)
	}

	Service struct {
		repo Repository
		tx   core.Transactor
	}
)

func NewService(repo Repository, tx core.Transactor) *Service {
	return &Service{repo: repo, tx: tx}
}

func newEntry(churchID, teacherID, studentID string, amount int, kind, refID, note string) Entry {
	return Entry{
		ID:        uuid.New().String(),
		ChurchID:  churchID,
		StudentID: studentID,
		Amount:    amount,
		Kind:      kind,
		RefID:     refID,
		Note:      note,
		TeacherID: teacherID,
		CreatedAt: core.NowFunc().UTC(),
	}
}

func (svc *Service) Balance(ctx context.Context, churchID, studentID string) (int, error) {
	return svc.repo.Balance(ctx, churchID, studentID)
}

// checkBalance locks the student and refuses deductions that would take their balance below zero.
func (svc *Service) checkBalance(ctx context.Context, exec core.DBExecutor, churchID, studentID string, amount int) error {
	if err := svc.repo.LockStudent(ctx, churchID, studentID, exec); err != nil {
		return err
	}
	if amount >= 0 {
		return nil
	}
	balance, err := svc.repo.Balance(ctx, churchID, studentID, exec)
	if err != nil {
		return errors.Wrap(err, "getting balance")
	}
	if balance+amount < 0 {
		return core.NewValidationError(ErrInsufficientBalance, core.FieldError{Field: "amount", Error: ErrInsufficientBalance.Error()})
	}
	return nil
}

func checkGrant(amount int, kind string) error {
	if amount == 0 {
		return core.NewValidationError(ErrZeroAmount, core.FieldError{Field: "amount", Error: ErrZeroAmount.Error()})
	}
	if kind != KindManual && kind != KindGame {
		return errInvalidGrantKind
	}
	return nil
}

// Grant awards (amount > 0) or deducts (amount < 0) talents by hand or as a game result.
func (svc *Service) Grant(ctx context.Context, churchID, teacherID, studentID string, amount int, kind, note string) (Entry, error) {
	if err := checkGrant(amount, kind); err != nil {
		return Entry{}, err
	}
	e := newEntry(churchID, teacherID, studentID, amount, kind, "", note)
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.checkBalance(ctx, exec, churchID, studentID, amount); err != nil {
			return err
		}
		return errors.Wrap(svc.repo.CreateEntries(ctx, []Entry{e}, exec), "creating entry")
	})
	if err != nil {
		return Entry{}, err
	}
	return e, nil
}

// GrantMany applies the same grant to every student, all or nothing.
// Every balance is checked before the first entry is written.
func (svc *Service) GrantMany(ctx context.Context, churchID, teacherID string, studentIDs []string, amount int, kind, note string) ([]Entry, error) {
	if err := checkGrant(amount, kind); err != nil {
		return nil, err
	}
	studentIDs = core.UniqueStrings(studentIDs)
	entries := make([]Entry, 0, len(studentIDs))
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		for _, sid := range studentIDs {
			if err := svc.checkBalance(ctx, exec, churchID, sid, amount); err != nil {
				if vErr, ok := errors.Cause(err).(*core.ValidationError); ok && vErr.Err == ErrInsufficientBalance {
					return core.NewValidationError(ErrInsufficientBalance, core.FieldError{Field: "student_ids", Error: sid + ": " + ErrInsufficientBalance.Error()})
				}
				return err
			}
			entries = append(entries, newEntry(churchID, teacherID, sid, amount, kind, "", note))
		}
		return errors.Wrap(svc.repo.CreateEntries(ctx, entries, exec), "creating entries")
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Award appends an automatic award inside the caller's transaction.
// A zero amount is a no-op, and so is a reference that still carries an award of that kind.
func (svc *Service) Award(ctx context.Context, exec core.DBExecutor, churchID, teacherID, studentID string, amount int, kind, refID string) error {
	if amount == 0 {
		return nil
	}
	if err := svc.repo.LockStudent(ctx, churchID, studentID, exec); err != nil {
		return err
	}
	net, err := svc.repo.NetByRef(ctx, refID, kind, exec)
	if err != nil {
		return errors.Wrap(err, "summing entries by ref")
	}
	if net != 0 {
		return nil
	}
	e := newEntry(churchID, teacherID, studentID, amount, kind, refID, "")
	return errors.Wrap(svc.repo.CreateEntries(ctx, []Entry{e}, exec), "creating award entry")
}

// Reverse appends the entry cancelling whatever is still awarded for (refID, kind),
// so that the net award for the reference drops back to zero.
func (svc *Service) Reverse(ctx context.Context, exec core.DBExecutor, churchID, teacherID, studentID, kind, refID string) error {
	if err := svc.repo.LockStudent(ctx, churchID, studentID, exec); err != nil {
		return err
	}
	net, err := svc.repo.NetByRef(ctx, refID, kind, exec)
	if err != nil {
		return errors.Wrap(err, "summing entries by ref")
	}
	if net == 0 {
		return nil
	}
	e := newEntry(churchID, teacherID, studentID, -net, kind, refID, "reversal")
	return errors.Wrap(svc.repo.CreateEntries(ctx, []Entry{e}, exec), "creating reversal entry")
}

// Entries returns the ledger of a student, newest first.
func (svc *Service) Entries(ctx context.Context, churchID, studentID string, limit int) ([]Entry, error) {
	return svc.repo.QueryEntries(ctx, churchID, studentID, limit)
}

func (svc *Service) Leaderboard(ctx context.Context, churchID string) ([]Standing, error) {
	balances, err := svc.repo.QueryBalances(ctx, churchID)
	if err != nil {
		return nil, errors.Wrap(err, "querying balances")
	}
	return RankStandings(balances), nil
}

// Rank returns the leaderboard row of a student and the number of ranked students.
func (svc *Service) Rank(ctx context.Context, churchID, studentID string) (Standing, int, error) {
	standings, err := svc.Leaderboard(ctx, churchID)
	if err != nil {
		return Standing{}, 0, err
	}
	for _, s := range standings {
		if s.StudentID == studentID {
			return s, len(standings), nil
		}
	}
	return Standing{}, len(standings), ErrStudentNotFound
}

package todos

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// DefaultPageSize bounds list responses when the client does not ask for a
// specific page size.
const DefaultPageSize = 10

// MaxPageSize caps client supplied page sizes.
const MaxPageSize = 100

// ErrTodoNotFound covers both genuinely missing ids and ids owned by someone
// else. The two cases must stay indistinguishable.
var ErrTodoNotFound = errors.New("Todo not found", errors.CategoryNotFound).
	WithTextCode("TODO_NOT_FOUND").
	WithCode(errors.CodeNotFound)

// orderColumns whitelists client facing ordering fields.
var orderColumns = map[string]string{
	"id":          "id",
	"title":       "title",
	"desc":        "description",
	"is_complete": "is_complete",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// ListParams narrows and orders an owner's todo listing.
type ListParams struct {
	ID         *int64
	Title      *string
	Desc       *string
	IsComplete *bool

	// Search matches a substring of title or desc, case insensitively.
	Search string

	// Ordering holds whitelisted field names, "-" prefix for descending.
	Ordering []string

	Page     int
	PageSize int
}

// UpdateParams carries a partial update; nil fields stay untouched.
type UpdateParams struct {
	Title      *string `json:"title"`
	Desc       *string `json:"desc"`
	IsComplete *bool   `json:"is_complete"`
}

func (p UpdateParams) isEmpty() bool {
	return p.Title == nil && p.Desc == nil && p.IsComplete == nil
}

// Repository is the ownership gate over todo rows: every operation is
// scoped to a single owner, and ids outside that owner's set behave exactly
// like missing rows.
type Repository interface {
	List(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]*Todo, int, error)
	GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*Todo, error)
	Create(ctx context.Context, record *Todo) (*Todo, error)
	Update(ctx context.Context, ownerID uuid.UUID, id int64, params UpdateParams) (*Todo, error)
	Delete(ctx context.Context, ownerID uuid.UUID, id int64) error
}

type repo struct {
	db *bun.DB
}

var _ Repository = (*repo)(nil)

// NewRepository creates a todos repository.
func NewRepository(db *bun.DB) Repository {
	return &repo{db: db}
}

func (r *repo) List(ctx context.Context, ownerID uuid.UUID, params ListParams) ([]*Todo, int, error) {
	var records []*Todo

	q := r.db.NewSelect().
		Model(&records).
		Where("?TableAlias.owner_id = ?", ownerID)

	if params.ID != nil {
		q = q.Where("?TableAlias.id = ?", *params.ID)
	}
	if params.Title != nil {
		q = q.Where("?TableAlias.title = ?", *params.Title)
	}
	if params.Desc != nil {
		q = q.Where("?TableAlias.description = ?", *params.Desc)
	}
	if params.IsComplete != nil {
		q = q.Where("?TableAlias.is_complete = ?", *params.IsComplete)
	}

	if search := strings.TrimSpace(params.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(?TableAlias.title) LIKE ?", pattern).
				WhereOr("lower(?TableAlias.description) LIKE ?", pattern)
		})
	}

	for _, expr := range orderExpressions(params.Ordering) {
		q = q.OrderExpr(expr)
	}

	page := params.Page
	if page < 1 {
		page = 1
	}
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	q = q.Limit(pageSize).Offset((page - 1) * pageSize)

	count, err := q.ScanAndCount(ctx)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryInternal, "failed to list todos")
	}

	return records, count, nil
}

func (r *repo) GetByID(ctx context.Context, ownerID uuid.UUID, id int64) (*Todo, error) {
	record := &Todo{}

	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", ownerID).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTodoNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to load todo")
	}

	return record, nil
}

func (r *repo) Create(ctx context.Context, record *Todo) (*Todo, error) {
	if record == nil {
		return nil, errors.New("todo record is required", errors.CategoryBadInput)
	}
	if record.OwnerID == uuid.Nil {
		return nil, errors.New("todo owner is required", errors.CategoryBadInput)
	}

	if _, err := r.db.NewInsert().Model(record).Returning("*").Exec(ctx); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to create todo")
	}

	return record, nil
}

func (r *repo) Update(ctx context.Context, ownerID uuid.UUID, id int64, params UpdateParams) (*Todo, error) {
	record, err := r.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}

	if params.isEmpty() {
		return record, nil
	}

	columns := []string{"updated_at"}
	if params.Title != nil {
		record.Title = *params.Title
		columns = append(columns, "title")
	}
	if params.Desc != nil {
		record.Desc = *params.Desc
		columns = append(columns, "description")
	}
	if params.IsComplete != nil {
		record.IsComplete = *params.IsComplete
		columns = append(columns, "is_complete")
	}

	now := time.Now()
	record.UpdatedAt = &now

	_, err = r.db.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Where("?TableAlias.owner_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to update todo")
	}

	return record, nil
}

func (r *repo) Delete(ctx context.Context, ownerID uuid.UUID, id int64) error {
	res, err := r.db.NewDelete().
		Model((*Todo)(nil)).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.owner_id = ?", ownerID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete todo")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to read delete result")
	}

	if affected == 0 {
		return ErrTodoNotFound
	}

	return nil
}

// orderExpressions maps client ordering to safe ORDER BY expressions.
// Unknown fields are ignored. Empty ordering lists newest first.
func orderExpressions(ordering []string) []string {
	out := []string{}

	for _, field := range ordering {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		dir := "ASC"
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}

		column, ok := orderColumns[field]
		if !ok {
			continue
		}

		out = append(out, "?TableAlias."+column+" "+dir)
	}

	if len(out) == 0 {
		out = append(out, "?TableAlias.created_at DESC", "?TableAlias.id DESC")
	}

	return out
}

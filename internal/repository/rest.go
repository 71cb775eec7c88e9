// Package repository implements the data access layer.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"mundotango/internal/models"
	"mundotango/internal/observability"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Attrs is a request body keyed by column name.
type Attrs map[string]any

// Actor is the authenticated caller of a write.
type Actor struct {
	ID      uint
	IsAdmin bool
}

// ListQuery selects a page of records. Filters are matched for equality
// against the model's filterable columns; other keys are ignored.
type ListQuery struct {
	Limit   int
	Offset  int
	Filters map[string]string
	// Actor scopes lists of private models.
	Actor Actor
	// Scopes narrow the rows a BeforeListHook lets the actor see.
	Scopes []func(*gorm.DB) *gorm.DB
}

// RestModel declares how a table is exposed through the generic REST
// endpoints.
type RestModel[T any] struct {
	// Name is used in error messages ("Event with ID 3 not found").
	Name string
	// Fields are the columns a client may assign on create or update.
	Fields []string
	// Shown are the selected columns; empty selects all.
	Shown []string
	// Filters are the columns accepted as list filters.
	Filters []string
	// Order is the default list ordering.
	Order   string
	Preload []string
	// OwnerColumn, when set, is forced to the caller on create and guards
	// update and delete against non-owners.
	OwnerColumn string
	// EditableBy lists further user columns whose user may update and
	// delete a record (the addressee of a friend request).
	EditableBy []string
	// AdminOnly restricts every write to admins.
	AdminOnly bool
	// Private limits lists to the caller's own records.
	Private bool

	BeforeListHook func(ctx context.Context, q *ListQuery) error
	// BeforeShowHook rejects a single record the actor may not read.
	BeforeShowHook   func(ctx context.Context, actor Actor, record *T) error
	BeforeCreateHook func(ctx context.Context, actor Actor, attrs Attrs) error
	BeforeEditHook   func(ctx context.Context, actor Actor, current *T, attrs Attrs) error
	// AfterCreateHook sees the permitted attrs, including keys that are not
	// columns (such as a chat room's member_ids).
	AfterCreateHook func(ctx context.Context, actor Actor, attrs Attrs, record *T)
	AfterEditHook   func(ctx context.Context, actor Actor, before, after *T)
	// AfterDeleteHook sees the record as it was before the soft delete.
	AfterDeleteHook func(ctx context.Context, actor Actor, record *T)
}

// Permit keeps only the assignable keys of attrs.
func (m *RestModel[T]) Permit(attrs Attrs) Attrs {
	out := make(Attrs, len(m.Fields))
	for _, f := range m.Fields {
		if v, ok := attrs[f]; ok {
			out[f] = v
		}
	}
	return out
}

func (m *RestModel[T]) filterable(col string) bool {
	for _, f := range m.Filters {
		if f == col {
			return true
		}
	}
	return false
}

// RestRepository is the CRUD surface behind every REST resource.
type RestRepository[T any] interface {
	Model() *RestModel[T]
	Create(ctx context.Context, actor Actor, attrs Attrs) (*T, error)
	List(ctx context.Context, q ListQuery) ([]T, int64, error)
	Get(ctx context.Context, id uint) (*T, error)
	Show(ctx context.Context, actor Actor, id uint) (*T, error)
	Update(ctx context.Context, actor Actor, id uint, attrs Attrs) (*T, error)
	Delete(ctx context.Context, actor Actor, id uint) error
}

type restRepository[T any] struct {
	db    *gorm.DB
	model *RestModel[T]
	table string
	log   *observability.RepoLogger
}

// NewRestRepository wraps db for the records declared by model.
func NewRestRepository[T any](db *gorm.DB, model *RestModel[T]) RestRepository[T] {
	table := tableName[T](db)
	return &restRepository[T]{
		db:    db,
		model: model,
		table: table,
		log:   observability.NewRepoLogger(table),
	}
}

func tableName[T any](db *gorm.DB) string {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil || stmt.Schema == nil {
		return strings.ToLower(reflect.TypeOf(new(T)).Elem().Name()) + "s"
	}
	return stmt.Schema.Table
}

func (r *restRepository[T]) Model() *RestModel[T] {
	return r.model
}

func (r *restRepository[T]) query(ctx context.Context) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(T))
	if len(r.model.Shown) > 0 {
		q = q.Select(r.model.Shown)
	}
	for _, p := range r.model.Preload {
		q = q.Preload(p)
	}
	return q
}

func (r *restRepository[T]) Create(ctx context.Context, actor Actor, attrs Attrs) (record *T, err error) {
	ctx, span := observability.StartSpan(ctx, "create", r.table)
	defer func() { observability.EndSpan(span, err) }()

	if r.model.AdminOnly && !actor.IsAdmin {
		return nil, r.adminOnly()
	}
	attrs = r.model.Permit(attrs)
	// A record owned through its own id (users) has no owner to stamp.
	if r.model.OwnerColumn != "" && r.model.OwnerColumn != "id" {
		attrs[r.model.OwnerColumn] = actor.ID
	}
	if r.model.BeforeCreateHook != nil {
		if err := r.model.BeforeCreateHook(ctx, actor, attrs); err != nil {
			return nil, err
		}
	}

	record, err = r.decode(ctx, attrs)
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return nil, r.writeError(ctx, "create", err)
	}

	id := primaryKey(record)
	r.log.LogWrite(ctx, "create", id)
	if fresh, getErr := r.Get(ctx, id); getErr == nil {
		record = fresh
	}
	if r.model.AfterCreateHook != nil {
		r.model.AfterCreateHook(ctx, actor, attrs, record)
	}
	return record, nil
}

// decode builds a record from attrs. Values go through encoding/json so
// request numbers and timestamps land in their typed fields; columns hidden
// from JSON (such as password hashes) are assigned through the schema.
func (r *restRepository[T]) decode(ctx context.Context, attrs Attrs) (*T, error) {
	record := new(T)
	raw, err := json.Marshal(attrs)
	if err != nil {
		return nil, models.NewValidationError("Invalid request body")
	}
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, &models.AppError{Code: models.CodeValidation, Message: "Invalid field value", Err: err}
	}

	stmt := &gorm.Statement{DB: r.db}
	if err := stmt.Parse(record); err != nil {
		return nil, models.NewInternalError(err)
	}
	rv := reflect.ValueOf(record).Elem()
	for col, v := range attrs {
		field := stmt.Schema.LookUpField(col)
		if field == nil || field.Tag.Get("json") != "-" {
			continue
		}
		if err := field.Set(ctx, rv, v); err != nil {
			return nil, models.NewInternalError(err)
		}
	}
	return record, nil
}

func (r *restRepository[T]) List(ctx context.Context, q ListQuery) ([]T, int64, error) {
	if r.model.BeforeListHook != nil {
		if err := r.model.BeforeListHook(ctx, &q); err != nil {
			return nil, 0, err
		}
	}
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	base := r.db.WithContext(ctx).Model(new(T))
	if r.model.Private && !q.Actor.IsAdmin {
		base = base.Where(r.ownedBy(q.Actor.ID))
	}
	if len(q.Scopes) > 0 {
		base = base.Scopes(q.Scopes...)
	}
	for col, v := range q.Filters {
		if r.model.filterable(col) {
			base = base.Where(clause.Eq{Column: clause.Column{Name: col}, Value: v})
		}
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	order := r.model.Order
	if order == "" {
		order = "id desc"
	}
	page := base.Session(&gorm.Session{})
	if len(r.model.Shown) > 0 {
		page = page.Select(r.model.Shown)
	}
	for _, p := range r.model.Preload {
		page = page.Preload(p)
	}

	records := make([]T, 0)
	if err := page.Order(order).Limit(limit).Offset(offset).Find(&records).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return records, total, nil
}

func (r *restRepository[T]) Get(ctx context.Context, id uint) (*T, error) {
	record := new(T)
	if err := r.query(ctx).First(record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError(r.model.Name, id)
		}
		return nil, models.NewInternalError(err)
	}
	return record, nil
}

// Show is Get as seen by actor: records of private models that the actor
// neither owns nor co-owns, and records refused by BeforeShowHook, are
// reported as missing.
func (r *restRepository[T]) Show(ctx context.Context, actor Actor, id uint) (*T, error) {
	record, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.IsAdmin {
		return record, nil
	}
	if r.model.Private && !r.ownsRecord(ctx, actor, record) {
		return nil, models.NewNotFoundError(r.model.Name, id)
	}
	if r.model.BeforeShowHook != nil {
		if err := r.model.BeforeShowHook(ctx, actor, record); err != nil {
			return nil, err
		}
	}
	return record, nil
}

func (r *restRepository[T]) ownsRecord(ctx context.Context, actor Actor, record *T) bool {
	for _, col := range r.userColumns() {
		if owner, ok := columnValue(ctx, r.db, record, col); ok && owner == actor.ID {
			return true
		}
	}
	return false
}

func (r *restRepository[T]) Update(ctx context.Context, actor Actor, id uint, attrs Attrs) (updated *T, err error) {
	ctx, span := observability.StartSpan(ctx, "update", r.table)
	defer func() { observability.EndSpan(span, err) }()

	current, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.authorize(ctx, actor, current); err != nil {
		return nil, err
	}

	attrs = r.model.Permit(attrs)
	if r.model.OwnerColumn != "" && !actor.IsAdmin {
		delete(attrs, r.model.OwnerColumn)
	}
	if r.model.BeforeEditHook != nil {
		if err := r.model.BeforeEditHook(ctx, actor, current, attrs); err != nil {
			return nil, err
		}
	}

	if len(attrs) > 0 {
		if err := r.db.WithContext(ctx).Model(new(T)).Where("id = ?", id).Updates(map[string]any(attrs)).Error; err != nil {
			return nil, r.writeError(ctx, "update", err)
		}
		r.log.LogWrite(ctx, "update", id)
	}

	updated, err = r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.model.AfterEditHook != nil {
		r.model.AfterEditHook(ctx, actor, current, updated)
	}
	return updated, nil
}

func (r *restRepository[T]) Delete(ctx context.Context, actor Actor, id uint) (err error) {
	ctx, span := observability.StartSpan(ctx, "delete", r.table)
	defer func() { observability.EndSpan(span, err) }()

	current, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := r.authorize(ctx, actor, current); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Delete(new(T), id).Error; err != nil {
		return r.writeError(ctx, "delete", err)
	}
	r.log.LogWrite(ctx, "delete", id)
	if r.model.AfterDeleteHook != nil {
		r.model.AfterDeleteHook(ctx, actor, current)
	}
	return nil
}

// ownedBy matches rows whose owner or co-owner columns hold userID.
func (r *restRepository[T]) ownedBy(userID uint) clause.Expression {
	var exprs []clause.Expression
	for _, col := range r.userColumns() {
		exprs = append(exprs, clause.Eq{Column: clause.Column{Name: col}, Value: userID})
	}
	if len(exprs) == 0 {
		return clause.Expr{SQL: "1 = 0"}
	}
	return clause.Or(exprs...)
}

func (r *restRepository[T]) userColumns() []string {
	var cols []string
	if r.model.OwnerColumn != "" {
		cols = append(cols, r.model.OwnerColumn)
	}
	return append(cols, r.model.EditableBy...)
}

// authorize rejects writes to another user's record unless the actor is an admin.
func (r *restRepository[T]) authorize(ctx context.Context, actor Actor, current *T) error {
	if actor.IsAdmin {
		return nil
	}
	if r.model.AdminOnly {
		return r.adminOnly()
	}
	if len(r.userColumns()) == 0 || r.ownsRecord(ctx, actor, current) {
		return nil
	}
	return models.NewForbiddenError(fmt.Sprintf("You cannot modify this %s", strings.ToLower(r.model.Name)))
}

func (r *restRepository[T]) adminOnly() error {
	return models.NewForbiddenError(fmt.Sprintf("Only admins can modify %s records", strings.ToLower(r.model.Name)))
}

func (r *restRepository[T]) writeError(ctx context.Context, op string, err error) error {
	if IsUniqueViolation(err) {
		return models.NewValidationError(r.model.Name + " already exists")
	}
	r.log.LogError(ctx, err, op)
	return models.NewInternalError(err)
}

// columnValue reads an unsigned id column (uint or *uint) from record.
func columnValue(ctx context.Context, db *gorm.DB, record any, column string) (uint, bool) {
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(record); err != nil {
		return 0, false
	}
	field := stmt.Schema.LookUpField(column)
	if field == nil {
		return 0, false
	}
	v, zero := field.ValueOf(ctx, reflect.ValueOf(record).Elem())
	if zero {
		return 0, false
	}
	switch id := v.(type) {
	case uint:
		return id, true
	case *uint:
		if id == nil {
			return 0, false
		}
		return *id, true
	}
	return 0, false
}

func primaryKey(record any) uint {
	rv := reflect.ValueOf(record).Elem()
	if f := rv.FieldByName("ID"); f.IsValid() && f.CanUint() {
		return uint(f.Uint())
	}
	return 0
}

// IsUniqueViolation reports whether err is a unique constraint violation
// (SQLSTATE 23505 on Postgres).
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint")
}

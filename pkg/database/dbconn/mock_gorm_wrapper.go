package dbconn

import (
	"errors"
	"reflect"
	"sync"
)

type MockGormWrapper interface {
	GormWrapper
	Created() []interface{}
	Chain() *QueryChain
	Migrated() []interface{}
	IsClosed() bool
	SetError(error) MockGormWrapper
	SetResult(interface{}) MockGormWrapper
}

// QueryChain records the last query built against the mock.
type QueryChain struct {
	Where WhereQuery
	Order interface{}
	Limit int
	Find  FindSelect
}

type WhereQuery struct {
	Query interface{}
	Args  []interface{}
}

type FindSelect struct {
	Conds []interface{}
}

type mockGormWrapper struct {
	mu       sync.Mutex
	error    error
	created  []interface{}
	migrated []interface{}
	chain    *QueryChain
	result   interface{}
	closed   bool
}

func Mock() MockGormWrapper {
	return &mockGormWrapper{}
}

func (w *mockGormWrapper) Created() []interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]interface{}{}, w.created...)
}

func (w *mockGormWrapper) Migrated() []interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.migrated
}

func (w *mockGormWrapper) Chain() *QueryChain {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chain
}

func (w *mockGormWrapper) IsClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

func (w *mockGormWrapper) SetError(e error) MockGormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.error = e
	return w
}

func (w *mockGormWrapper) SetResult(r interface{}) MockGormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.result = r
	return w
}

func (w *mockGormWrapper) Error() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.error
}

func (w *mockGormWrapper) AutoMigrate(dst ...interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.migrated = append(w.migrated, dst...)
	return w.error
}

func (w *mockGormWrapper) Create(value interface{}) GormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.error == nil {
		w.created = append(w.created, value)
	}
	return w
}

func (w *mockGormWrapper) Where(query interface{}, args ...interface{}) GormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query().Where = WhereQuery{Query: query, Args: args}
	return w
}

func (w *mockGormWrapper) Order(value interface{}) GormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query().Order = value
	return w
}

func (w *mockGormWrapper) Limit(limit int) GormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.query().Limit = limit
	return w
}

func (w *mockGormWrapper) Find(dest interface{}, conds ...interface{}) GormWrapper {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.chain == nil {
		w.error = errors.New("need to call query first")
		return w
	}

	w.chain.Find = FindSelect{conds}
	if w.result == nil {
		return w
	}
	if err := Replace(dest, w.result); w.error == nil {
		w.error = err
	}
	return w
}

func (w *mockGormWrapper) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *mockGormWrapper) query() *QueryChain {
	if w.chain == nil {
		w.chain = &QueryChain{}
	}
	return w.chain
}

func Replace(i, v interface{}) error {
	val := reflect.ValueOf(i)
	if val.Kind() != reflect.Ptr {
		return errors.New("not a pointer")
	}

	val = val.Elem()

	newVal := reflect.Indirect(reflect.ValueOf(v))

	if !val.Type().AssignableTo(newVal.Type()) {
		return errors.New("mismatched types")
	}

	val.Set(newVal)
	return nil
}

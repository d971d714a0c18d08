package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/goliatone/go-todos/logging"
	"github.com/goliatone/go-todos/todo"
)

// TodoService is the subset of todo.Service the resolvers call.
type TodoService interface {
	Create(ctx context.Context, in todo.CreateInput) (*todo.Todo, error)
	FindAll(ctx context.Context) ([]todo.Todo, error)
	FindOne(ctx context.Context, id string) (*todo.Todo, error)
	Update(ctx context.Context, id string, in todo.UpdateInput) (*todo.Todo, error)
	Remove(ctx context.Context, id string) (bool, error)
}

var _ TodoService = (*todo.Service)(nil)

// Resolver is the root resolver for Query and Mutation.
type Resolver struct {
	svc    TodoService
	logger logging.Logger
}

// NewResolver returns a root resolver. A nil logger discards output.
func NewResolver(svc TodoService, logger logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Resolver{svc: svc, logger: logger.Named("TodoResolver")}
}

type createTodoArgs struct {
	Input struct {
		Title     string
		Completed *bool
	}
}

type updateTodoArgs struct {
	ID    graphql.ID
	Input struct {
		Title     *string
		Completed *bool
	}
}

type idArgs struct {
	ID graphql.ID
}

func (r *Resolver) Todos(ctx context.Context) ([]*todoResolver, error) {
	todos, err := r.svc.FindAll(ctx)
	if err != nil {
		return nil, r.internal("todos", err)
	}

	out := make([]*todoResolver, len(todos))
	for i := range todos {
		out[i] = &todoResolver{t: todos[i]}
	}
	return out, nil
}

func (r *Resolver) Todo(ctx context.Context, args idArgs) (*todoResolver, error) {
	found, err := r.svc.FindOne(ctx, string(args.ID))
	if err != nil {
		return nil, r.internal("todo", err)
	}
	return wrap(found), nil
}

func (r *Resolver) CreateTodo(ctx context.Context, args createTodoArgs) (*todoResolver, error) {
	in := todo.CreateInput{
		Title:     args.Input.Title,
		Completed: args.Input.Completed,
	}
	if err := in.Validate(); err != nil {
		return nil, badInput(err)
	}

	created, err := r.svc.Create(ctx, in)
	if err != nil {
		return nil, r.internal("createTodo", err)
	}
	return wrap(created), nil
}

func (r *Resolver) UpdateTodo(ctx context.Context, args updateTodoArgs) (*todoResolver, error) {
	in := todo.UpdateInput{
		Title:     args.Input.Title,
		Completed: args.Input.Completed,
	}
	if err := in.Validate(); err != nil {
		return nil, badInput(err)
	}

	updated, err := r.svc.Update(ctx, string(args.ID), in)
	if err != nil {
		return nil, r.internal("updateTodo", err)
	}
	return wrap(updated), nil
}

func (r *Resolver) DeleteTodo(ctx context.Context, args idArgs) (bool, error) {
	deleted, err := r.svc.Remove(ctx, string(args.ID))
	if err != nil {
		return false, r.internal("deleteTodo", err)
	}
	return deleted, nil
}

func (r *Resolver) internal(field string, err error) error {
	if todo.IsValidation(err) {
		return badInput(err)
	}
	r.logger.Error("Resolver failed", err, logging.Fields{"field": field})
	return internalError()
}

func wrap(t *todo.Todo) *todoResolver {
	if t == nil {
		return nil
	}
	return &todoResolver{t: *t}
}

type todoResolver struct {
	t todo.Todo
}

func (r *todoResolver) ID() graphql.ID {
	return graphql.ID(r.t.ID)
}

func (r *todoResolver) Title() string {
	return r.t.Title
}

func (r *todoResolver) Completed() bool {
	return r.t.Completed
}

func (r *todoResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: r.t.CreatedAt}
}

func (r *todoResolver) UpdatedAt() graphql.Time {
	return graphql.Time{Time: r.t.UpdatedAt}
}

//nolint:revive // exported
package suser

import (
	"context"
	"database/sql"
	"errors"

	"github.com/echoline/echoline/pkg/idwrap"
	"github.com/echoline/echoline/pkg/model/muser"
	"github.com/echoline/echoline/pkg/store/queries"
	"github.com/echoline/echoline/pkg/translate/tgeneric"
)

var ErrUserNotFound = errors.New("suser: user not found")

type UserService struct {
	queries *queries.Queries
}

func New(db *sql.DB) UserService {
	return UserService{queries: queries.New(db)}
}

func NewFromQueries(q *queries.Queries) UserService {
	return UserService{queries: q}
}

func convertToModelUser(u queries.User) *muser.User {
	var image *string
	if u.Image.Valid {
		image = &u.Image.String
	}
	return &muser.User{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Image:     image,
		CreatedAt: u.CreatedAt,
	}
}

func (us UserService) GetUser(ctx context.Context, id idwrap.IDWrap) (*muser.User, error) {
	u, err := us.queries.GetUser(ctx, id)
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrUserNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelUser(u), nil
}

func (us UserService) GetUserByEmail(ctx context.Context, email string) (*muser.User, error) {
	u, err := us.queries.GetUserByEmail(ctx, email)
	err = tgeneric.ReplaceRootWithSub(sql.ErrNoRows, ErrUserNotFound, err)
	if err != nil {
		return nil, err
	}
	return convertToModelUser(u), nil
}

func (us UserService) CreateUser(ctx context.Context, user *muser.User) error {
	image := sql.NullString{}
	if user.Image != nil {
		image = sql.NullString{String: *user.Image, Valid: true}
	}
	return us.queries.CreateUser(ctx, queries.CreateUserParams{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Image:     image,
		CreatedAt: user.CreatedAt,
	})
}

package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"accountabuddyAPI/internal/gamerr"
	"accountabuddyAPI/internal/types/challenge"
	"accountabuddyAPI/internal/types/user"
)

type UserService struct {
	db *pgxpool.Pool
}

func NewUserService(db *pgxpool.Pool) *UserService {
	return &UserService{db: db}
}

func (s *UserService) CreateUser(ctx context.Context, req *user.CreateUserRequest) (*user.User, error) {
	u := &user.User{
		ID:        uuid.New().String(),
		ClerkID:   req.ClerkID,
		Email:     req.Email,
		Username:  req.Username,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	query := `
	INSERT INTO users (id, clerk_id, email, username, first_name, last_name, image_url, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	err := s.db.QueryRow(
		ctx, query,
		u.ID, u.ClerkID, u.Email, u.Username, u.FirstName, u.LastName, u.ImageURL,
		u.CreatedAt, u.UpdatedAt,
	).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.ImageURL, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *UserService) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
	SELECT id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	FROM users
	WHERE clerk_id = $1
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.ImageURL, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, gamerr.ErrNotFound)
		}
		return nil, storeErr("failed to get user", err)
	}

	return u, nil
}

// ResolveUserID maps the authenticated clerk id onto the internal user
// uuid that keys every engine record.
func (s *UserService) ResolveUserID(ctx context.Context, clerkID string) (uuid.UUID, error) {
	var userID uuid.UUID
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE clerk_id = $1`, clerkID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, fmt.Errorf("user %s: %w", clerkID, gamerr.ErrNotFound)
		}
		return uuid.Nil, storeErr("failed to resolve user", err)
	}
	return userID, nil
}

func (s *UserService) UpdateProfileByClerkID(ctx context.Context, clerkID string, req *user.UpdateProfileRequest) (*user.User, error) {
	query := `
	UPDATE users
	SET username = COALESCE(NULLIF($1, ''), username),
	    first_name = COALESCE(NULLIF($2, ''), first_name),
	    last_name = COALESCE(NULLIF($3, ''), last_name),
	    image_url = COALESCE(NULLIF($4, ''), image_url),
	    updated_at = NOW()
	WHERE clerk_id = $5
	RETURNING id, clerk_id, email, username, first_name, last_name, image_url, email_verified, created_at, updated_at
	`

	u := &user.User{}
	err := s.db.QueryRow(ctx, query, req.Username, req.FirstName, req.LastName, req.ImageURL, clerkID).Scan(
		&u.ID, &u.ClerkID, &u.Email, &u.Username, &u.FirstName, &u.LastName,
		&u.ImageURL, &u.EmailVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %s: %w", clerkID, gamerr.ErrNotFound)
		}
		return nil, storeErr("failed to update profile", err)
	}

	return u, nil
}

func (s *UserService) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return storeErr("failed to delete user", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %s: %w", clerkID, gamerr.ErrNotFound)
	}
	return nil
}

func (s *UserService) UpdateEmailVerification(ctx context.Context, clerkID string, verified bool) error {
	_, err := s.db.Exec(ctx, `UPDATE users SET email_verified = $1, updated_at = NOW() WHERE clerk_id = $2`,
		verified, clerkID)
	if err != nil {
		return storeErr("failed to update email verification", err)
	}
	return nil
}

// GetChallenge returns one challenge by id.
func (s *UserService) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := s.db.QueryRow(ctx, `
		SELECT id, name, description, goal_type, goal_value, is_active, start_date, end_date, created_at
		FROM challenges
		WHERE id = $1
	`, challengeID).Scan(
		&c.ID, &c.Name, &c.Description, &c.GoalType, &c.GoalValue,
		&c.IsActive, &c.StartDate, &c.EndDate, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("challenge %s: %w", challengeID, gamerr.ErrNotFound)
		}
		return nil, storeErr("failed to get challenge", err)
	}
	return c, nil
}

// ListActiveChallenges returns the challenges a user can join, newest
// first. Backs the board-discovery endpoint.
func (s *UserService) ListActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, description, goal_type, goal_value, is_active, start_date, end_date, created_at
		FROM challenges
		WHERE is_active = true
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, storeErr("failed to fetch challenges", err)
	}
	defer rows.Close()

	list := []*challenge.Challenge{}
	for rows.Next() {
		c := &challenge.Challenge{}
		err := rows.Scan(
			&c.ID, &c.Name, &c.Description, &c.GoalType, &c.GoalValue,
			&c.IsActive, &c.StartDate, &c.EndDate, &c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("failed to read challenge rows", err)
	}

	return list, nil
}

// JoinChallenge adds the user to a challenge so scoped leaderboards
// include them.
func (s *UserService) JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID) error {
	c, err := s.GetChallenge(ctx, challengeID)
	if err != nil {
		return err
	}
	if !c.IsActive {
		return fmt.Errorf("challenge %s is not active: %w", challengeID, gamerr.ErrInvalidInput)
	}

	_, err = s.db.Exec(ctx, `
		INSERT INTO challenge_members (id, user_id, challenge_id, joined_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, challenge_id) DO NOTHING
	`, uuid.New(), userID, challengeID)
	if err != nil {
		return storeErr("failed to join challenge", err)
	}
	return nil
}

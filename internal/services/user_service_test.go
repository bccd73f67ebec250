package services

import (
	"testing"
	"time"

	"finresolve/internal/testutil"
)

func TestUserService_CreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("creates a user with a hashed password", func(t *testing.T) {
		user, err := svc.CreateUser("jane@example.com", "supersecret1", "Jane", "Doe")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Error("expected a generated user id")
		}
		if user.Password == "supersecret1" {
			t.Error("password must be stored hashed")
		}
		if !svc.VerifyPassword(user, "supersecret1") {
			t.Error("expected the hash to verify")
		}
		if svc.VerifyPassword(user, "wrong") {
			t.Error("wrong password must not verify")
		}
	})

	t.Run("lowercases the email", func(t *testing.T) {
		user, err := svc.CreateUser("MiXeD@Example.COM", "supersecret1", "", "")
		testutil.AssertNoError(t, err)
		if user.Email != "mixed@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, err := svc.CreateUser("dup@example.com", "supersecret1", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "supersecret1", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("rejects empty credentials", func(t *testing.T) {
		_, err := svc.CreateUser("", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUserService_GetUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created := testutil.CreateTestUser(t, db)

	t.Run("by email", func(t *testing.T) {
		user, err := svc.GetUserByEmail(created.Email)
		testutil.AssertNoError(t, err)
		if user.ID != created.ID {
			t.Errorf("expected %s, got %s", created.ID, user.ID)
		}
	})

	t.Run("by id", func(t *testing.T) {
		user, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)
		if user.Email != created.Email {
			t.Errorf("expected %s, got %s", created.Email, user.Email)
		}
	})

	t.Run("unknown email", func(t *testing.T) {
		_, err := svc.GetUserByEmail("nobody@example.com")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})

	t.Run("inactive users are invisible by email", func(t *testing.T) {
		inactive := testutil.CreateTestUser(t, db)
		db.Model(inactive).Update("is_active", false)

		_, err := svc.GetUserByEmail(inactive.Email)
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

func TestUserService_AttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("succeeds with correct credentials and stamps last login", func(t *testing.T) {
		created := testutil.CreateTestUser(t, db)

		user, err := svc.AttemptLogin(created.Email, "password123")
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected last_login_at stamped")
		}
	})

	t.Run("wrong password is invalid credentials", func(t *testing.T) {
		created := testutil.CreateTestUser(t, db)

		_, err := svc.AttemptLogin(created.Email, "wrongpass")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown account is indistinguishable from a wrong password", func(t *testing.T) {
		_, err := svc.AttemptLogin("ghost@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("locks the account after repeated failures", func(t *testing.T) {
		created := testutil.CreateTestUser(t, db)

		for i := 0; i < 5; i++ {
			_, err := svc.AttemptLogin(created.Email, "wrongpass")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the right password is refused while locked.
		_, err := svc.AttemptLogin(created.Email, "password123")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})

	t.Run("a success resets the failure counter", func(t *testing.T) {
		created := testutil.CreateTestUser(t, db)

		for i := 0; i < 4; i++ {
			_, _ = svc.AttemptLogin(created.Email, "wrongpass")
		}
		_, err := svc.AttemptLogin(created.Email, "password123")
		testutil.AssertNoError(t, err)

		fresh, err := svc.GetUserByID(created.ID)
		testutil.AssertNoError(t, err)
		if fresh.FailedLoginAttempts != 0 {
			t.Errorf("expected counter reset, got %d", fresh.FailedLoginAttempts)
		}
	})

	t.Run("an expired lock clears on the next attempt", func(t *testing.T) {
		created := testutil.CreateTestUser(t, db)
		past := time.Now().Add(-time.Minute)
		db.Model(created).Updates(map[string]interface{}{
			"failed_login_attempts": 5,
			"locked_until":          &past,
		})

		_, err := svc.AttemptLogin(created.Email, "password123")
		testutil.AssertNoError(t, err)
	})
}

func TestUserService_RefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	created := testutil.CreateTestUser(t, db)

	t.Run("stores and returns the hash", func(t *testing.T) {
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(created.ID, "abc123"))

		hash, err := svc.GetRefreshTokenHash(created.ID)
		testutil.AssertNoError(t, err)
		if hash != "abc123" {
			t.Errorf("expected abc123, got %s", hash)
		}
	})

	t.Run("overwrites the previous hash on rotation", func(t *testing.T) {
		testutil.AssertNoError(t, svc.StoreRefreshTokenHash(created.ID, "def456"))

		hash, err := svc.GetRefreshTokenHash(created.ID)
		testutil.AssertNoError(t, err)
		if hash != "def456" {
			t.Errorf("expected def456, got %s", hash)
		}
	})

	t.Run("unknown user errors", func(t *testing.T) {
		err := svc.StoreRefreshTokenHash("01925bcd-3f10-7def-8000-00000000dead", "abc")
		testutil.AssertAppError(t, err, "USER_NOT_FOUND")
	})
}

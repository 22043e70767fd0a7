package db

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupDB(t *testing.T, name string) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := gdb.AutoMigrate(&User{}, &Session{}, &PushSubscription{}, &WaterLog{}, &TickReport{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	DB = gdb

	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
		DB = nil
	})
}

func createTestUser(t *testing.T, email string) *User {
	t.Helper()
	user, err := CreateUser(email, "correct-horse-battery")
	if err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

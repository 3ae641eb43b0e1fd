package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"learnplanning/internal/database"
	"learnplanning/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupHandlerDB opens an in-memory database, migrates the schema and
// installs it as the package-wide connection the handlers resolve.
func setupHandlerDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })
	return db
}

// invoke runs a handler against a synthetic authenticated request
func invoke(t *testing.T, handler gin.HandlerFunc, method string, params gin.Params, userID, email string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request body: %v", err)
		}
	}
	c.Request = httptest.NewRequest(method, "/", &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = params
	if userID != "" {
		c.Set("user_id", userID)
	}
	if email != "" {
		c.Set("email", email)
	}

	handler(c)
	return w
}

func createTestAccount(t *testing.T, db *gorm.DB, email, name string) *models.Account {
	t.Helper()
	account := models.Account{
		GoogleID: "google-" + email,
		Email:    email,
		Name:     name,
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	return &account
}

// createTestGroup creates a group with its owner membership
func createTestGroup(t *testing.T, db *gorm.DB, ownerID string, isPublic, allowMemberInvite bool) *models.Group {
	t.Helper()
	group := models.Group{
		Name:              "Study Circle",
		OwnerID:           ownerID,
		IsPublic:          isPublic,
		AllowMemberInvite: allowMemberInvite,
	}
	if err := db.Create(&group).Error; err != nil {
		t.Fatalf("create group: %v", err)
	}
	member := models.GroupMember{GroupID: group.ID, UserID: ownerID, Role: models.RoleOwner}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("create owner membership: %v", err)
	}
	return &group
}

func addMember(t *testing.T, db *gorm.DB, groupID, userID string, role models.MemberRole) {
	t.Helper()
	member := models.GroupMember{GroupID: groupID, UserID: userID, Role: role}
	if err := db.Create(&member).Error; err != nil {
		t.Fatalf("add member: %v", err)
	}
}

func groupParams(groupID string) gin.Params {
	return gin.Params{{Key: "group_id", Value: groupID}}
}

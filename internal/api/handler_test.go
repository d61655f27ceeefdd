package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"asset-inventory-backend/internal/chatbot"
	"asset-inventory-backend/internal/db"
	"asset-inventory-backend/internal/model"
	"asset-inventory-backend/internal/notification"
	"asset-inventory-backend/internal/store"
)

func newTestHandler(t *testing.T) (*Handler, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", t.Name())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))

	s := store.NewGormStore(gormDB, store.Options{DefaultLoanDays: 14, LateFeePerDay: 1})
	return NewHandler(Deps{Store: s}), gormDB
}

// asPrincipal injects an authenticated caller, standing in for the session
// middleware.
func asPrincipal(p model.Principal) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("principal", p)
		c.Next()
	}
}

func seedTestUser(t *testing.T, gdb *gorm.DB, username string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Username: username, Role: role, PasswordHash: "x", PasswordSalt: "x", IsActive: true}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestItemEndpoints(t *testing.T) {
	h, gdb := newTestHandler(t)
	manager := seedTestUser(t, gdb, "manager", model.RoleManager)

	r := gin.New()
	r.Use(asPrincipal(model.Principal{UserID: manager.ID, Role: manager.Role}))
	r.POST("/categories", h.CreateCategory)
	r.POST("/items", h.CreateItem)
	r.PUT("/items/:id", h.UpdateItem)
	r.GET("/items", h.ListItems)
	r.GET("/items/:id", h.GetItem)
	r.GET("/items/:id/qr", h.ItemQR)
	r.DELETE("/items/:id", h.DecommissionItem)

	w := doJSON(t, r, http.MethodPost, "/categories", gin.H{
		"name": "Laptops",
		"schema": []gin.H{
			{"name": "serial", "type": "text", "required": true},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var catResp struct {
		Success bool           `json:"success"`
		Data    model.Category `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &catResp))
	require.True(t, catResp.Success)

	t.Run("create with generated inventory number", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/items", gin.H{
			"name":        "ThinkPad X1",
			"category_id": catResp.Data.ID,
			"details":     gin.H{"serial": "SN-100"},
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		var resp struct {
			Data model.Item `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "LAP-0001", resp.Data.InventoryNumber)
	})

	t.Run("update without generated fields keeps them", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPut, "/items/1", gin.H{
			"name":        "ThinkPad X1 Carbon",
			"category_id": catResp.Data.ID,
			"details":     gin.H{"serial": "SN-100"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var got model.Item
		require.NoError(t, gdb.First(&got, 1).Error)
		assert.Equal(t, "ThinkPad X1 Carbon", got.Name)
		assert.Equal(t, "LAP-0001", got.InventoryNumber)
		assert.True(t, got.IsActive)
	})

	t.Run("schema violations map to 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/items", gin.H{
			"name":        "No serial",
			"category_id": catResp.Data.ID,
			"details":     gin.H{},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `"success":false`)
	})

	t.Run("missing item maps to 404", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/items/99999", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("qr label renders a png", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/items/1/qr", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))
	})

	t.Run("listing is paginated", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/items?page=1&size=10", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data struct {
				Total int64 `json:"total"`
				Page  int   `json:"page"`
				Size  int   `json:"size"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(1), resp.Data.Total)
		assert.Equal(t, 10, resp.Data.Size)
	})
}

func TestTransactionEndpoints(t *testing.T) {
	h, gdb := newTestHandler(t)
	staff := seedTestUser(t, gdb, "staff", model.RoleStaff)

	cat := &model.Category{Name: "Cameras"}
	require.NoError(t, gdb.Create(cat).Error)
	item := &model.Item{
		InventoryNumber: "CAM-0001", Name: "EOS R5", CategoryID: cat.ID,
		Status: model.ItemAvailable, ConditionStatus: model.ConditionGood, IsActive: true,
	}
	require.NoError(t, gdb.Create(item).Error)

	r := gin.New()
	r.Use(asPrincipal(model.Principal{UserID: staff.ID, Role: staff.Role}))
	r.POST("/transactions/checkout", h.Checkout)
	r.POST("/transactions/:id/return", h.Return)
	r.POST("/transactions/:id/cancel", h.Cancel)

	w := doJSON(t, r, http.MethodPost, "/transactions/checkout", gin.H{"item_id": item.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var coResp struct {
		Data model.Transaction `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &coResp))
	assert.Equal(t, staff.ID, coResp.Data.UserID)

	t.Run("double checkout conflicts", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost, "/transactions/checkout", gin.H{"item_id": item.ID})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("cancel with a short reason maps to 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost,
			fmt.Sprintf("/transactions/%d/cancel", coResp.Data.ID), gin.H{"reason": "oops"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("return closes the loan", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost,
			fmt.Sprintf("/transactions/%d/return", coResp.Data.ID),
			gin.H{"condition_status": "good"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Data struct {
				Transaction model.Transaction `json:"transaction"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, model.TransactionReturned, resp.Data.Transaction.Status)
	})

	t.Run("return of a closed loan maps to 422", func(t *testing.T) {
		w := doJSON(t, r, http.MethodPost,
			fmt.Sprintf("/transactions/%d/return", coResp.Data.ID),
			gin.H{"condition_status": "good"})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestExportEndpoint(t *testing.T) {
	h, gdb := newTestHandler(t)
	manager := seedTestUser(t, gdb, "manager", model.RoleManager)

	cat := &model.Category{Name: "Laptops"}
	require.NoError(t, gdb.Create(cat).Error)
	require.NoError(t, gdb.Create(&model.Item{
		InventoryNumber: "LAP-0001", Name: "ThinkPad", CategoryID: cat.ID,
		Status: model.ItemAvailable, ConditionStatus: model.ConditionGood, IsActive: true,
	}).Error)

	r := gin.New()
	r.Use(asPrincipal(model.Principal{UserID: manager.ID, Role: manager.Role}))
	r.GET("/items/export", h.ExportItems)

	t.Run("csv download", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/items/export?format=csv", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
		assert.Contains(t, w.Body.String(), "LAP-0001")
	})

	t.Run("unknown format maps to 400", func(t *testing.T) {
		w := doJSON(t, r, http.MethodGet, "/items/export?format=xlsx", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	h, gdb := newTestHandler(t)
	staff := seedTestUser(t, gdb, "staff", model.RoleStaff)

	r := gin.New()
	r.Use(asPrincipal(model.Principal{UserID: staff.ID, Role: staff.Role}))
	r.PUT("/subscriptions", h.PutSubscription)
	r.GET("/subscriptions", h.ListSubscriptions)
	r.DELETE("/subscriptions", h.DeleteSubscription)

	w := doJSON(t, r, http.MethodPut, "/subscriptions", gin.H{
		"endpoint": "https://push.example.com/abc",
		"p256dh":   "key",
		"auth":     "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodGet, "/subscriptions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://push.example.com/abc")

	t.Run("cannot delete another user's subscription", func(t *testing.T) {
		w := doJSON(t, r, http.MethodDelete, "/subscriptions", gin.H{"endpoint": "https://push.example.com/other"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	w = doJSON(t, r, http.MethodDelete, "/subscriptions", gin.H{"endpoint": "https://push.example.com/abc"})
	require.Equal(t, http.StatusOK, w.Code)

	var count int64
	require.NoError(t, gdb.Model(&model.PushSubscription{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPurchaseTransitionsNotifyRequester(t *testing.T) {
	_, gdb := newTestHandler(t)
	staff := seedTestUser(t, gdb, "staff", model.RoleStaff)
	manager := seedTestUser(t, gdb, "manager", model.RoleManager)

	s := store.NewGormStore(gdb, store.Options{DefaultLoanDays: 14, LateFeePerDay: 1})
	notifier := notification.NewWorkerPool(8, gdb, nil)
	h := NewHandler(Deps{Store: s, Notifier: notifier})

	asStaff := gin.New()
	asStaff.Use(asPrincipal(model.Principal{UserID: staff.ID, Role: staff.Role}))
	asStaff.POST("/purchases", h.CreatePurchase)
	asStaff.POST("/purchases/:id/cancel", h.CancelPurchase)

	asManager := gin.New()
	asManager.Use(asPrincipal(model.Principal{UserID: manager.ID, Role: manager.Role}))
	asManager.POST("/purchases/:id/approve", h.ApprovePurchase)
	asManager.POST("/purchases/:id/ordered", h.MarkPurchaseOrdered)
	asManager.POST("/purchases/:id/received", h.MarkPurchaseReceived)

	nextNotification := func() notification.Notification {
		select {
		case n := <-notifier.Jobs():
			return n
		default:
			t.Fatal("expected a dispatched notification")
			return notification.Notification{}
		}
	}

	newRequest := func(name string) int64 {
		w := doJSON(t, asStaff, http.MethodPost, "/purchases", gin.H{
			"item_name":     name,
			"quantity":      1,
			"justification": "replacement for a broken unit",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var resp struct {
			Data model.PurchaseRequest `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp.Data.ID
	}

	id := newRequest("Dell U2723QE")

	w := doJSON(t, asManager, http.MethodPost, fmt.Sprintf("/purchases/%d/approve", id), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n := nextNotification()
	assert.Equal(t, staff.ID, n.UserID)
	assert.Equal(t, "Purchase request approved", n.Title)

	w = doJSON(t, asManager, http.MethodPost, fmt.Sprintf("/purchases/%d/ordered", id), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n = nextNotification()
	assert.Equal(t, staff.ID, n.UserID)
	assert.Equal(t, "Purchase request ordered", n.Title)

	w = doJSON(t, asManager, http.MethodPost, fmt.Sprintf("/purchases/%d/received", id), gin.H{"actual_cost": 598.50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n = nextNotification()
	assert.Equal(t, staff.ID, n.UserID)
	assert.Equal(t, "Purchase request received", n.Title)

	cancelled := newRequest("Spare keyboard")
	w = doJSON(t, asStaff, http.MethodPost, fmt.Sprintf("/purchases/%d/cancel", cancelled), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	n = nextNotification()
	assert.Equal(t, staff.ID, n.UserID)
	assert.Equal(t, "Purchase request cancelled", n.Title)
}

func TestFailErrMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"not found", gorm.ErrRecordNotFound, http.StatusNotFound},
		{"forbidden", store.ErrNotAuthorized, http.StatusForbidden},
		{"conflict", store.ErrItemNotAvailable, http.StatusConflict},
		{"state error", store.ErrTransactionClosed, http.StatusUnprocessableEntity},
		{"bad query", chatbot.ErrInvalidQuery, http.StatusUnprocessableEntity},
		{"assistant down", chatbot.ErrUnavailable, http.StatusServiceUnavailable},
		{"assistant error", chatbot.ErrUpstream, http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			failErr(c, tc.err)
			assert.Equal(t, tc.want, w.Code)
			assert.Contains(t, w.Body.String(), `"success":false`)
		})
	}
}

func TestVAPIDKeyEndpoint(t *testing.T) {
	h, _ := newTestHandler(t)

	r := gin.New()
	r.GET("/vapid_public_key", h.GetVAPIDPublicKey)

	w := doJSON(t, r, http.MethodGet, "/vapid_public_key", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, "no keys configured")
}

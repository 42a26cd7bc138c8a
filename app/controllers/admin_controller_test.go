package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/tutorsite/app/models"
	"github.com/ManuelReschke/tutorsite/internal/pkg/billing"
)

func newAdminFixture(t *testing.T) (*memDB, uint, uint) {
	t.Helper()
	db := newMemDB()
	admin := db.addUser("admin@example.com", models.ROLE_ADMIN)
	student := db.addUser("student@example.com", models.ROLE_STUDENT)
	return db, admin, student
}

func TestAdmin_WithoutSessionIsUnauthorizedRegardlessOfPayload(t *testing.T) {
	db, _, _ := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))

	requests := []struct {
		method string
		path   string
		body   interface{}
	}{
		{http.MethodGet, "/api/admin/stats", nil},
		{http.MethodGet, "/api/admin/products", nil},
		{http.MethodPost, "/api/admin/products", map[string]interface{}{"title": "X", "slug": "x", "price": 1}},
		{http.MethodDelete, "/api/admin/products/1", nil},
		{http.MethodPatch, "/api/admin/messages/1", map[string]interface{}{"is_read": true}},
		{http.MethodPatch, "/api/admin/class-enrollments/1/confirm", map[string]interface{}{"payment_status": "confirmed"}},
		{http.MethodPost, "/api/admin/classes", []byte("not json")},
	}
	for _, r := range requests {
		resp := send(t, app, r.method, r.path, 0, r.body)
		assert.Equal(t, http.StatusUnauthorized, resp.Status, "%s %s", r.method, r.path)
		assert.Equal(t, "unauthorized", resp.Map(t)["error"])
	}
	assert.Zero(t, db.roleCalls, "no role lookup without a session")
	assert.Zero(t, db.count(func() int { return len(db.products) }))
}

func TestAdmin_NonAdminRoleIsUnauthorized(t *testing.T) {
	db, _, student := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodGet, "/api/admin/stats", student, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
	assert.Equal(t, "admin access required", resp.Map(t)["message"])

	// user without a profile
	resp = send(t, app, http.MethodGet, "/api/admin/stats", 4242, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestAdmin_Stats(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	db.addProduct(testProduct("Paper 1", "paper-1", ""))
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodGet, "/api/admin/stats", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	assert.EqualValues(t, 1, resp.Map(t)["products"])
}

func TestAdmin_Orders(t *testing.T) {
	db, admin, student := newAdminFixture(t)
	productID := db.addProduct(testProduct("Paper 1", "paper-1", ""))
	for _, lsID := range []string{"2001", "2002"} {
		payload := webhookPayload(t, "order_created", lsID, map[string]interface{}{
			"user_id":     student,
			"product_ids": []uint{productID},
		})
		require.Equal(t, http.StatusOK, postWebhook(t, db, payload, billing.Sign(payload, testWebhookSecret)).Status)
	}
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodGet, "/api/admin/orders", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	orders := resp.List(t)
	require.Len(t, orders, 2)
	assert.Equal(t, "2002", orders[0]["ls_order_id"])
	assert.Equal(t, models.ORDER_STATUS_PAID, orders[0]["status"])

	assert.Equal(t, http.StatusUnauthorized, send(t, app, http.MethodGet, "/api/admin/orders", student, nil).Status)
}

func TestAdmin_CreateProduct(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))
	create := func(body map[string]interface{}) testResponse {
		return send(t, app, http.MethodPost, "/api/admin/products", admin, body)
	}

	resp := create(map[string]interface{}{"title": "Paper", "slug": "paper"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "price is required", resp.Map(t)["message"])

	resp = create(map[string]interface{}{"title": "Paper", "price": 3})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "slug is required", resp.Map(t)["message"])

	resp = create(map[string]interface{}{"slug": "paper", "price": 3})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "title is required", resp.Map(t)["message"])

	resp = create(map[string]interface{}{"title": "GCSE Maths Paper 1", "generate_slug": true, "price": 4.5})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	first := resp.Map(t)
	assert.Equal(t, "gcse-maths-paper-1", first["slug"])
	assert.Equal(t, true, first["is_active"])

	resp = create(map[string]interface{}{"title": "GCSE Maths Paper 1", "generate_slug": true, "price": 4.5})
	require.Equal(t, http.StatusCreated, resp.Status)
	second := resp.Map(t)["slug"].(string)
	assert.True(t, strings.HasPrefix(second, "gcse-maths-paper-1-"), second)
	assert.Len(t, second, len("gcse-maths-paper-1-")+6)

	resp = create(map[string]interface{}{"title": "Copy", "slug": "gcse-maths-paper-1", "price": 1})
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = create(map[string]interface{}{"title": "Hidden", "slug": "hidden", "price": 1, "is_active": false})
	require.Equal(t, http.StatusCreated, resp.Status)
	assert.Equal(t, false, resp.Map(t)["is_active"])
}

func TestAdmin_UpdateAndDeleteProduct(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	id := db.addProduct(testProduct("Paper 1", "paper-1", "papers/p1.pdf"))
	db.addProduct(testProduct("Paper 2", "paper-2", ""))
	app := newTestApp(newTestDeps(db))
	path := fmt.Sprintf("/api/admin/products/%d", id)

	resp := send(t, app, http.MethodPut, path, admin, map[string]interface{}{"slug": "paper-2"})
	assert.Equal(t, http.StatusConflict, resp.Status)

	resp = send(t, app, http.MethodPut, path, admin, map[string]interface{}{"price": 9.99, "slug": "paper-1"})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	body := resp.Map(t)
	assert.Equal(t, 9.99, body["price"])
	assert.Equal(t, "Paper 1", body["title"])
	assert.Equal(t, "papers/p1.pdf", body["file_url"])

	resp = send(t, app, http.MethodPut, "/api/admin/products/999", admin, map[string]interface{}{"price": 1})
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = send(t, app, http.MethodDelete, path, admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	resp = send(t, app, http.MethodDelete, path, admin, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAdmin_WritesInvalidateCatalogCache(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodGet, "/api/products", 0, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Empty(t, resp.List(t))

	resp = send(t, app, http.MethodPost, "/api/admin/products", admin,
		map[string]interface{}{"title": "Paper 1", "slug": "paper-1", "price": 2, "file_url": "papers/p1.pdf"})
	require.Equal(t, http.StatusCreated, resp.Status)

	resp = send(t, app, http.MethodGet, "/api/products", 0, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	list := resp.List(t)
	require.Len(t, list, 1)
	assert.Nil(t, list[0]["file_url"])
}

func TestAdmin_CreateClassDefaults(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodPost, "/api/admin/classes", admin, map[string]interface{}{"title": "Year 11 Higher"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "price_per_student is required", resp.Map(t)["message"])

	resp = send(t, app, http.MethodPost, "/api/admin/classes", admin,
		map[string]interface{}{"title": "Year 11 Higher", "price_per_student": 30, "status": "paused"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = send(t, app, http.MethodPost, "/api/admin/classes", admin,
		map[string]interface{}{"title": "Year 11 Higher", "price_per_student": 30})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	body := resp.Map(t)
	assert.EqualValues(t, models.DefaultClassMaxStudents, body["max_students"])
	assert.Equal(t, models.CLASS_STATUS_ACTIVE, body["status"])
}

func TestAdmin_CreateTestimonial(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	app := newTestApp(newTestDeps(db))

	resp := send(t, app, http.MethodPost, "/api/admin/testimonials", admin,
		map[string]interface{}{"name": "Parent", "quote": "Great", "rating": 6})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = send(t, app, http.MethodPost, "/api/admin/testimonials", admin, map[string]interface{}{"name": "Parent"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "quote is required", resp.Map(t)["message"])

	resp = send(t, app, http.MethodPost, "/api/admin/testimonials", admin,
		map[string]interface{}{"name": "Parent", "quote": "Great tutor"})
	require.Equal(t, http.StatusCreated, resp.Status, string(resp.Body))
	assert.EqualValues(t, models.DefaultTestimonialRating, resp.Map(t)["rating"])
}

func TestAdmin_Messages(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	deps := newTestDeps(db)
	app := newTestApp(deps)

	for _, typ := range []string{models.MESSAGE_TYPE_CONTACT, models.MESSAGE_TYPE_CONTACT, models.MESSAGE_TYPE_INTRO_SESSION} {
		require.NoError(t, deps.Repos.Message.Create(context.Background(), &models.Message{Name: "n", Email: "e@example.com", Type: typ}))
	}

	resp := send(t, app, http.MethodGet, "/api/admin/messages?type=contact", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	contacts := resp.List(t)
	require.Len(t, contacts, 2)

	id := uint(contacts[0]["id"].(float64))
	resp = send(t, app, http.MethodPatch, fmt.Sprintf("/api/admin/messages/%d", id), admin, map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	resp = send(t, app, http.MethodPatch, fmt.Sprintf("/api/admin/messages/%d", id), admin, map[string]interface{}{"is_read": true})
	require.Equal(t, http.StatusOK, resp.Status)

	resp = send(t, app, http.MethodGet, "/api/admin/messages?unread=true", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Len(t, resp.List(t), 2)

	resp = send(t, app, http.MethodGet, "/api/admin/messages?type=spam", admin, nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = send(t, app, http.MethodPatch, "/api/admin/messages/999", admin, map[string]interface{}{"is_read": true})
	assert.Equal(t, http.StatusNotFound, resp.Status)
}

func TestAdmin_ConfirmEnrollmentRechecksCapacity(t *testing.T) {
	db, admin, _ := newAdminFixture(t)
	classID := db.addClass(testClass(1, models.CLASS_STATUS_ACTIVE))
	a := db.addUser("a@example.com", models.ROLE_STUDENT)
	b := db.addUser("b@example.com", models.ROLE_STUDENT)
	app := newTestApp(newTestDeps(db))

	var ids []uint
	for _, u := range []uint{a, b} {
		resp := send(t, app, http.MethodPost, "/api/me/classes/enrol-request", u, map[string]interface{}{"class_id": classID})
		require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
		e := resp.Map(t)["enrollment"].(map[string]interface{})
		ids = append(ids, uint(e["id"].(float64)))
	}
	confirm := func(id uint, body interface{}) testResponse {
		return send(t, app, http.MethodPatch, fmt.Sprintf("/api/admin/class-enrollments/%d/confirm", id), admin, body)
	}

	resp := confirm(ids[0], map[string]interface{}{"payment_status": "paid"})
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = confirm(ids[0], map[string]interface{}{"payment_status": models.PAYMENT_STATUS_CONFIRMED})
	require.Equal(t, http.StatusOK, resp.Status, string(resp.Body))
	assert.Equal(t, models.PAYMENT_STATUS_CONFIRMED, resp.Map(t)["payment_status"])

	resp = confirm(ids[1], nil)
	assert.Equal(t, http.StatusBadRequest, resp.Status)
	assert.Equal(t, "Class is full", resp.Map(t)["message"])

	resp = confirm(ids[0], map[string]interface{}{"payment_status": models.PAYMENT_STATUS_CANCELLED})
	require.Equal(t, http.StatusOK, resp.Status)
	resp = confirm(ids[1], nil)
	require.Equal(t, http.StatusOK, resp.Status)

	resp = confirm(999, nil)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = send(t, app, http.MethodGet, "/api/admin/class-enrollments", admin, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	list := resp.List(t)
	require.Len(t, list, 2)
	assert.NotNil(t, list[0]["class"])
	assert.NotNil(t, list[0]["profile"])
}

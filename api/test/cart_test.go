package test

import (
	"net/http"
	"testing"

	"github.com/studynotion/backend/core/cart"
)

type cartTest struct {
	*TestEnv
}

func TestCart(t *testing.T) {
	env, err := NewTestEnv(t, "cart_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	rt := &cartTest{env}
	ct := &courseTest{env}

	c := ct.createCourseOK(t)
	pending := ct.submitCourse(t, "Still Pending", 100)

	rt.createItemOK(t, c.ID)

	if err := Login(rt.Server, rt.UserEmail, rt.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(rt.Server)

	// Unpublished courses cannot be carted.
	body := map[string]any{"courseId": pending.ID}
	rt.doJSON(t, http.MethodPut, "/cart/items", body, http.StatusBadRequest, nil)

	var crt cart.Cart
	rt.doJSON(t, http.MethodGet, "/cart", nil, http.StatusOK, &crt)
	if len(crt.Items) != 1 || crt.Items[0].CourseID != c.ID {
		t.Fatalf("cart contents: got %+v", crt.Items)
	}

	// Adding the same course twice keeps a single row.
	body = map[string]any{"courseId": c.ID}
	rt.doJSON(t, http.MethodPut, "/cart/items", body, http.StatusCreated, nil)
	rt.doJSON(t, http.MethodGet, "/cart", nil, http.StatusOK, &crt)
	if len(crt.Items) != 1 {
		t.Fatalf("cart rows after duplicate add: got %d, want 1", len(crt.Items))
	}

	rt.doJSON(t, http.MethodDelete, "/cart/items/"+c.ID, nil, http.StatusNoContent, nil)
	rt.doJSON(t, http.MethodGet, "/cart", nil, http.StatusOK, &crt)
	if len(crt.Items) != 0 {
		t.Fatalf("cart rows after remove: got %d, want 0", len(crt.Items))
	}
}

// createItemOK puts a course in the student's cart.
func (rt *cartTest) createItemOK(t *testing.T, courseID string) {
	t.Helper()

	if err := Login(rt.Server, rt.UserEmail, rt.UserPass); err != nil {
		t.Fatal(err)
	}
	defer Logout(rt.Server)

	body := map[string]any{"courseId": courseID}
	rt.doJSON(t, http.MethodPut, "/cart/items", body, http.StatusCreated, nil)
}

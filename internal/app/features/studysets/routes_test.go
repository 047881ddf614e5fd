package studysets_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dalemusser/studyhub/internal/app/features/studysets"
	"github.com/dalemusser/studyhub/internal/app/system/auth"
	"github.com/dalemusser/studyhub/internal/testutil"
	"github.com/dalemusser/studyhub/internal/testutil/apptest"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) (http.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	env := apptest.New(t, db)
	h := studysets.NewHandler(env.Actions, zap.NewNop())

	r := chi.NewRouter()
	r.Mount("/studysets", studysets.Routes(h, env.Sessions))
	r.Mount("/favorites", studysets.FavoritesRoutes(h, env.Sessions))
	return r, testutil.NewFixtures(t, db)
}

func do(router http.Handler, req *http.Request, u *auth.SessionUser) *httptest.ResponseRecorder {
	if u != nil {
		req = testutil.WithUser(req, u)
	}
	req.Header.Set("Accept", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestStudySets_RequireSignIn(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, testutil.NewRequest(http.MethodGet, "/studysets"), nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestStudySets_CreateFromForm(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.OwnerUser()
	form := url.Values{"name": {"Organic Chemistry"}, "subject": {"Chemistry"}}
	rec := do(router, testutil.NewFormRequest("/studysets", form), owner)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	count, err := fixtures.DB().Collection("study_sets").CountDocuments(ctx, bson.M{
		"name":           "Organic Chemistry",
		"study_group_id": owner.StudyGroupID,
	})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 study set, got %d", count)
	}
}

func TestStudySets_CreateInvalid(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := do(router, testutil.NewJSONRequest(http.MethodPost, "/studysets", `{"name":""}`), testutil.OwnerUser())
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, rec.Code)
	}
	var body struct {
		Code        string            `json:"code"`
		FieldErrors map[string]string `json:"field_errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "invalid_input" || body.FieldErrors["name"] == "" {
		t.Errorf("expected a name field error, got %+v", body)
	}
}

func TestStudySets_GetOtherGroupIsNotFound(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	set := fixtures.CreateStudySet(ctx, primitive.NewObjectID(), "Someone else's")

	rec := do(router, testutil.NewRequest(http.MethodGet, "/studysets/"+set.ID.Hex()), testutil.OwnerUser())
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestStudySets_EditBindsIDFromURL(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.OwnerUser()
	set := fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Draft")

	rec := do(router, testutil.NewJSONRequest(http.MethodPost, "/studysets/"+set.ID.Hex()+"/edit",
		`{"id":"`+primitive.NewObjectID().Hex()+`","name":"Final","description":"ready"}`), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var stored struct {
		Name string `bson:"name"`
	}
	if err := fixtures.DB().Collection("study_sets").FindOne(ctx, bson.M{"_id": set.ID}).Decode(&stored); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if stored.Name != "Final" {
		t.Errorf("expected name Final, got %q", stored.Name)
	}
}

func TestStudySets_FavoriteShowsInFavorites(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.OwnerUser()
	fav := fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Keep")
	fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Skip")

	rec := do(router, testutil.NewRequest(http.MethodPost, "/studysets/"+fav.ID.Hex()+"/favorite"), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorite: expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	rec = do(router, testutil.NewRequest(http.MethodGet, "/favorites"), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("favorites: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var body struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 1 || body.Data[0].Name != "Keep" {
		t.Errorf("expected only Keep in favorites, got %+v", body.Data)
	}
}

func TestStudySets_NotesUnderSet(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.OwnerUser()
	set := fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Physics")

	rec := do(router, testutil.NewJSONRequest(http.MethodPost, "/studysets/"+set.ID.Hex()+"/notes",
		`{"body":"<p>F = ma</p><script>alert(1)</script>"}`), owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create note: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = do(router, testutil.NewRequest(http.MethodGet, "/studysets/"+set.ID.Hex()+"/notes"), owner)
	if rec.Code != http.StatusOK {
		t.Fatalf("list notes: expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if strings.Contains(rec.Body.String(), "alert") {
		t.Error("note body should be sanitized")
	}
	if !strings.Contains(rec.Body.String(), "F = ma") {
		t.Errorf("expected note body in list, got %s", rec.Body.String())
	}
}

func TestStudySets_DeleteImageChecksStudySet(t *testing.T) {
	router, fixtures := newTestRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	owner := testutil.OwnerUser()
	set := fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Anatomy")
	other := fixtures.CreateStudySet(ctx, owner.StudyGroupID, "Botany")

	rec := do(router, testutil.NewJSONRequest(http.MethodPost, "/studysets/"+set.ID.Hex()+"/images",
		`{"url":"https://img.example.com/heart.png"}`), owner)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add image: expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}
	var body struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}

	tests := []struct {
		name   string
		setID  string
		status int
		left   int64
	}{
		{"other study set", other.ID.Hex(), http.StatusNotFound, 1},
		{"owning study set", set.ID.Hex(), http.StatusOK, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(router, testutil.NewRequest(http.MethodPost,
				"/studysets/"+tt.setID+"/images/"+body.Data.ID+"/delete"), owner)
			if rec.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
			n, err := fixtures.DB().Collection("study_set_images").CountDocuments(ctx, bson.M{"study_set_id": set.ID})
			if err != nil {
				t.Fatalf("CountDocuments failed: %v", err)
			}
			if n != tt.left {
				t.Errorf("images left = %d, want %d", n, tt.left)
			}
		})
	}
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meshwork Contributors

package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/meshwork/meshwork/internal/auth"
	"github.com/meshwork/meshwork/internal/social"
)

// MockAccountService is a mock AccountService.
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, in auth.RegisterInput) (*auth.Principal, error) {
	args := m.Called(ctx, in)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Login(ctx context.Context, login, password string) (*auth.Principal, string, error) {
	args := m.Called(ctx, login, password)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.String(1), args.Error(2)
	}
	return nil, args.String(1), args.Error(2)
}

func (m *MockAccountService) Refresh(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

func (m *MockAccountService) Get(ctx context.Context, id ulid.ULID) (*auth.Principal, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Update(ctx context.Context, id ulid.ULID, patch auth.PrincipalPatch, actingID ulid.ULID) (*auth.Principal, error) {
	args := m.Called(ctx, id, patch, actingID)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) Remove(ctx context.Context, id ulid.ULID, actingID ulid.ULID) (*auth.Principal, error) {
	args := m.Called(ctx, id, actingID)
	if p := args.Get(0); p != nil {
		return p.(*auth.Principal), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockAccountService) ChangePassword(ctx context.Context, id ulid.ULID, current, next string) error {
	args := m.Called(ctx, id, current, next)
	return args.Error(0)
}

// MockResourceService is a mock ResourceService for one kind.
type MockResourceService struct {
	mock.Mock
	kind social.Kind
}

func (m *MockResourceService) Kind() social.Kind { return m.kind }

func (m *MockResourceService) Create(ctx context.Context, ownerID ulid.ULID, parentID *ulid.ULID, fields social.Fields) (*social.Resource, error) {
	args := m.Called(ctx, ownerID, parentID, fields)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResourceService) Get(ctx context.Context, id ulid.ULID) (*social.Resource, error) {
	args := m.Called(ctx, id)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResourceService) ListByOwner(ctx context.Context, ownerID ulid.ULID) ([]*social.Resource, error) {
	args := m.Called(ctx, ownerID)
	if r := args.Get(0); r != nil {
		return r.([]*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResourceService) ListByParent(ctx context.Context, parentID ulid.ULID, page, pageSize int) (*social.Page, error) {
	args := m.Called(ctx, parentID, page, pageSize)
	if r := args.Get(0); r != nil {
		return r.(*social.Page), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResourceService) Update(ctx context.Context, id ulid.ULID, patch social.Fields, principalID ulid.ULID) (*social.Resource, error) {
	args := m.Called(ctx, id, patch, principalID)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockResourceService) Remove(ctx context.Context, id ulid.ULID, principalID ulid.ULID) (*social.Resource, error) {
	args := m.Called(ctx, id, principalID)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockReactor is a mock Reactor.
type MockReactor struct {
	mock.Mock
}

func (m *MockReactor) React(ctx context.Context, principalID, postID ulid.ULID, status string) (*social.Resource, error) {
	args := m.Called(ctx, principalID, postID, status)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReactor) ForPost(ctx context.Context, principalID, postID ulid.ULID) (*social.Resource, error) {
	args := m.Called(ctx, principalID, postID)
	if r := args.Get(0); r != nil {
		return r.(*social.Resource), args.Error(1)
	}
	return nil, args.Error(1)
}

// stubVerifier accepts exactly one token string.
type stubVerifier struct {
	token       string
	principalID ulid.ULID
}

func (v *stubVerifier) Verify(token string) (*auth.Claims, error) {
	if token != v.token {
		return nil, auth.ErrInvalidToken
	}
	return &auth.Claims{PrincipalID: v.principalID.String()}, nil
}

// testRouter bundles the router and its mocks.
type testRouter struct {
	handler     http.Handler
	accounts    *MockAccountService
	posts       *MockResourceService
	comments    *MockResourceService
	skills      *MockResourceService
	experiences *MockResourceService
	reactions   *MockReactor
	principalID ulid.ULID
}

const testToken = "valid-test-token"

func newTestRouter(t *testing.T) *testRouter {
	t.Helper()

	tr := &testRouter{
		accounts:    new(MockAccountService),
		posts:       &MockResourceService{kind: social.KindPost},
		comments:    &MockResourceService{kind: social.KindComment},
		skills:      &MockResourceService{kind: social.KindSkill},
		experiences: &MockResourceService{kind: social.KindExperience},
		reactions:   new(MockReactor),
		principalID: ulid.Make(),
	}

	handler, err := New(Config{
		Accounts:    tr.accounts,
		Posts:       tr.posts,
		Comments:    tr.comments,
		Skills:      tr.skills,
		Experiences: tr.experiences,
		Reactions:   tr.reactions,
		Verifier:    &stubVerifier{token: testToken, principalID: tr.principalID},
		Logger:      discardLogger(),
	})
	require.NoError(t, err)
	tr.handler = handler
	return tr
}

func (tr *testRouter) do(t *testing.T, method, path, body string, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	if authed {
		r.Header.Set("Authorization", "Bearer "+testToken)
	}
	w := httptest.NewRecorder()
	tr.handler.ServeHTTP(w, r)
	return w
}

func testPost(owner ulid.ULID) *social.Resource {
	now := time.Now()
	return &social.Resource{
		ID:        ulid.Make(),
		Kind:      social.KindPost,
		OwnerID:   owner,
		Fields:    social.Fields{"content": "hello"},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestRouter_Register(t *testing.T) {
	tr := newTestRouter(t)

	created := &auth.Principal{ID: ulid.Make(), Username: "hollis", Email: "hollis@example.com"}
	tr.accounts.On("Register", mock.Anything, auth.RegisterInput{
		Username: "hollis", Email: "hollis@example.com", Password: "s3cret-passw0rd",
	}).Return(created, nil)

	w := tr.do(t, http.MethodPost, "/api/users",
		`{"username":"hollis","email":"hollis@example.com","password":"s3cret-passw0rd"}`, false)

	assert.Equal(t, http.StatusCreated, w.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, created.ID.String(), body["id"])
	assert.NotContains(t, w.Body.String(), "password")
}

func TestRouter_Register_Conflict(t *testing.T) {
	tr := newTestRouter(t)

	tr.accounts.On("Register", mock.Anything, mock.Anything).Return(nil, auth.ErrAlreadyExists)

	w := tr.do(t, http.MethodPost, "/api/users",
		`{"username":"hollis","email":"hollis@example.com","password":"s3cret-passw0rd"}`, false)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRouter_Login(t *testing.T) {
	tr := newTestRouter(t)

	principal := &auth.Principal{ID: tr.principalID, Username: "hollis"}
	tr.accounts.On("Login", mock.Anything, "hollis", "s3cret-passw0rd").
		Return(principal, "signed-token", nil)

	w := tr.do(t, http.MethodPost, "/api/auth/login",
		`{"login":"hollis","password":"s3cret-passw0rd"}`, false)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Token string        `json:"token"`
		User  principalBody `json:"user"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "signed-token", body.Token)
	assert.Equal(t, "hollis", body.User.Username)
}

func TestRouter_Login_BadCredentials(t *testing.T) {
	tr := newTestRouter(t)

	tr.accounts.On("Login", mock.Anything, "hollis", "wrong").
		Return(nil, "", auth.ErrInvalidCredentials)

	w := tr.do(t, http.MethodPost, "/api/auth/login", `{"login":"hollis","password":"wrong"}`, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RequireAuth(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not a bearer token", "Basic abc123"},
		{"empty bearer token", "Bearer "},
		{"unknown token", "Bearer forged-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := newTestRouter(t)

			r := httptest.NewRequest(http.MethodPost, "/api/posts", strings.NewReader(`{"content":"hi"}`))
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			tr.handler.ServeHTTP(w, r)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			tr.posts.AssertNotCalled(t, "Create")
		})
	}
}

func TestRouter_PublicReadNeedsNoToken(t *testing.T) {
	tr := newTestRouter(t)
	post := testPost(ulid.Make())

	tr.posts.On("Get", mock.Anything, post.ID).Return(post, nil)

	w := tr.do(t, http.MethodGet, "/api/posts/"+post.ID.String(), "", false)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CreatePost(t *testing.T) {
	tr := newTestRouter(t)
	post := testPost(tr.principalID)

	tr.posts.On("Create", mock.Anything, tr.principalID, (*ulid.ULID)(nil),
		social.Fields{"content": "hello"}).Return(post, nil)

	w := tr.do(t, http.MethodPost, "/api/posts", `{"content":"hello"}`, true)

	require.Equal(t, http.StatusCreated, w.Code)

	var body resourceBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "post", body.Kind)
	assert.Equal(t, tr.principalID.String(), body.OwnerID)
}

func TestRouter_CreateComment_ParentFromRoute(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	comment := &social.Resource{
		ID: ulid.Make(), Kind: social.KindComment, OwnerID: tr.principalID,
		ParentID: &postID, Fields: social.Fields{"text": "nice"},
	}
	tr.comments.On("Create", mock.Anything, tr.principalID,
		mock.MatchedBy(func(p *ulid.ULID) bool { return p != nil && *p == postID }),
		social.Fields{"text": "nice"}).Return(comment, nil)

	w := tr.do(t, http.MethodPost, "/api/posts/"+postID.String()+"/comments", `{"text":"nice"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	tr.comments.AssertExpectations(t)
}

func TestRouter_CreateSkill_ParentFromBodyField(t *testing.T) {
	tr := newTestRouter(t)
	experienceID := ulid.Make()

	skill := &social.Resource{
		ID: ulid.Make(), Kind: social.KindSkill, OwnerID: tr.principalID,
		ParentID: &experienceID, Fields: social.Fields{"name": "Go"},
	}
	// experience_id is lifted out of the fields before the service sees them.
	tr.skills.On("Create", mock.Anything, tr.principalID,
		mock.MatchedBy(func(p *ulid.ULID) bool { return p != nil && *p == experienceID }),
		social.Fields{"name": "Go"}).Return(skill, nil)

	w := tr.do(t, http.MethodPost, "/api/skills",
		`{"name":"Go","experience_id":"`+experienceID.String()+`"}`, true)
	require.Equal(t, http.StatusCreated, w.Code)
	tr.skills.AssertExpectations(t)
}

func TestRouter_CreateSkill_BadExperienceID(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(t, http.MethodPost, "/api/skills", `{"name":"Go","experience_id":"nope"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	tr.skills.AssertNotCalled(t, "Create")
}

func TestRouter_ListComments_PageShape(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	comment := &social.Resource{
		ID: ulid.Make(), Kind: social.KindComment, OwnerID: ulid.Make(),
		ParentID: &postID, Fields: social.Fields{"text": "nice"},
	}
	tr.comments.On("ListByParent", mock.Anything, postID, 2, 5).
		Return(&social.Page{
			Data: []*social.Resource{comment},
			Meta: social.Meta{Total: 11, Page: 2, PageSize: 5},
		}, nil)

	w := tr.do(t, http.MethodGet,
		"/api/posts/"+postID.String()+"/comments?page=2&page_size=5", "", false)

	require.Equal(t, http.StatusOK, w.Code)

	var body pageBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, int64(11), body.Meta.Total)
	assert.Equal(t, 2, body.Meta.Page)
	assert.Equal(t, 5, body.Meta.PageSize)
}

func TestRouter_ListComments_DeletedPost(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	tr.comments.On("ListByParent", mock.Anything, postID, 1, social.DefaultPageSize).
		Return(nil, social.ErrParentNotFound)

	w := tr.do(t, http.MethodGet, "/api/posts/"+postID.String()+"/comments", "", false)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_UpdatePost_NotOwner(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	tr.posts.On("Update", mock.Anything, postID, social.Fields{"content": "hijack"}, tr.principalID).
		Return(nil, social.ErrUnauthorized)

	w := tr.do(t, http.MethodPatch, "/api/posts/"+postID.String(), `{"content":"hijack"}`, true)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_UpdatePost_NullBody(t *testing.T) {
	tr := newTestRouter(t)
	post := testPost(tr.principalID)

	// A literal null body decodes to a nil Fields map; the service must
	// still treat it as an empty patch rather than erroring out.
	tr.posts.On("Update", mock.Anything, post.ID, social.Fields(nil), tr.principalID).
		Return(post, nil)

	w := tr.do(t, http.MethodPatch, "/api/posts/"+post.ID.String(), `null`, true)
	assert.Equal(t, http.StatusOK, w.Code)
	tr.posts.AssertExpectations(t)
}

func TestRouter_RemovePost(t *testing.T) {
	tr := newTestRouter(t)
	post := testPost(tr.principalID)

	tr.posts.On("Remove", mock.Anything, post.ID, tr.principalID).Return(post, nil)

	w := tr.do(t, http.MethodDelete, "/api/posts/"+post.ID.String(), "", true)
	require.Equal(t, http.StatusOK, w.Code)

	var body resourceBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, post.ID.String(), body.ID)
}

func TestRouter_React(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	reaction := &social.Resource{
		ID: ulid.Make(), Kind: social.KindReaction, OwnerID: tr.principalID,
		ParentID: &postID, Fields: social.Fields{"status": social.ReactionLike},
	}
	tr.reactions.On("React", mock.Anything, tr.principalID, postID, social.ReactionLike).
		Return(reaction, nil)

	w := tr.do(t, http.MethodPut, "/api/posts/"+postID.String()+"/reaction",
		`{"status":"Like"}`, true)

	require.Equal(t, http.StatusOK, w.Code)

	var body resourceBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "reaction", body.Kind)
	assert.Equal(t, social.ReactionLike, body.Fields["status"])
}

func TestRouter_React_InvalidStatus(t *testing.T) {
	tr := newTestRouter(t)
	postID := ulid.Make()

	tr.reactions.On("React", mock.Anything, tr.principalID, postID, "Love").
		Return(nil, &social.ValidationError{Field: "status", Message: "must be Like, Dislike, or Neutral"})

	w := tr.do(t, http.MethodPut, "/api/posts/"+postID.String()+"/reaction",
		`{"status":"Love"}`, true)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ChangePassword(t *testing.T) {
	tr := newTestRouter(t)

	tr.accounts.On("ChangePassword", mock.Anything, tr.principalID, "old password", "new password1").
		Return(nil)

	w := tr.do(t, http.MethodPost, "/api/auth/password",
		`{"current_password":"old password","new_password":"new password1"}`, true)
	assert.Equal(t, http.StatusNoContent, w.Code)
	tr.accounts.AssertExpectations(t)
}

func TestRouter_InvalidPathID(t *testing.T) {
	tr := newTestRouter(t)

	w := tr.do(t, http.MethodGet, "/api/posts/not-a-ulid", "", false)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	tr.posts.AssertNotCalled(t, "Get")
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

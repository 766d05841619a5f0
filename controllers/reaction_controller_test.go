package controllers

import (
	"net/http"
	"testing"

	"github.com/trqanh/socialblog/models"
)

func TestToggleLikeScenario(t *testing.T) {
	_, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	bob := registerAndLogin(t, r, "bob", "b@x.com", "pw5678")

	postID := createPost(t, r, alice, "Hello", "World")

	w, resp := doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("like: expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if resp.Data["action"] != "liked" || resp.Data["likes_count"].(float64) != 1 {
		t.Fatalf("expected {liked, 1}, got {%v, %v}", resp.Data["action"], resp.Data["likes_count"])
	}

	w, resp = doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("unlike: expected 200, got %d", w.Code)
	}
	if resp.Data["action"] != "unliked" || resp.Data["likes_count"].(float64) != 0 {
		t.Fatalf("expected {unliked, 0}, got {%v, %v}", resp.Data["action"], resp.Data["likes_count"])
	}
}

func TestToggleLikeDoubleFlipRestoresState(t *testing.T) {
	db, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	postID := createPost(t, r, alice, "Hello", "World")

	countRows := func() int64 {
		var n int64
		db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", 1, postID).Count(&n)
		return n
	}

	if n := countRows(); n != 0 {
		t.Fatalf("initial state: expected 0 rows, got %d", n)
	}
	doJSON(t, r, http.MethodPost, postPath(postID, "/like"), alice, nil)
	if n := countRows(); n != 1 {
		t.Fatalf("after like: expected exactly 1 row, got %d", n)
	}
	doJSON(t, r, http.MethodPost, postPath(postID, "/like"), alice, nil)
	if n := countRows(); n != 0 {
		t.Fatalf("after double flip: expected 0 rows, got %d", n)
	}
}

func TestToggleLikeUserIsolation(t *testing.T) {
	db, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	bob := registerAndLogin(t, r, "bob", "b@x.com", "pw5678")

	postID := createPost(t, r, alice, "Hello", "World")

	doJSON(t, r, http.MethodPost, postPath(postID, "/like"), alice, nil)
	_, resp := doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil)
	if resp.Data["likes_count"].(float64) != 2 {
		t.Fatalf("expected 2 likes, got %v", resp.Data["likes_count"])
	}

	// Bob unliking must not touch Alice's like.
	_, resp = doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil)
	if resp.Data["action"] != "unliked" || resp.Data["likes_count"].(float64) != 1 {
		t.Fatalf("expected {unliked, 1}, got {%v, %v}", resp.Data["action"], resp.Data["likes_count"])
	}

	var aliceLikes int64
	db.Model(&models.Like{}).Where("user_id = ? AND post_id = ?", 1, postID).Count(&aliceLikes)
	if aliceLikes != 1 {
		t.Fatalf("alice's like state changed, rows=%d", aliceLikes)
	}
}

func TestToggleLikeRequiresAuth(t *testing.T) {
	_, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	postID := createPost(t, r, alice, "Hello", "World")

	w, _ := doJSON(t, r, http.MethodPost, postPath(postID, "/like"), "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
}

func TestToggleLikeMissingPost(t *testing.T) {
	_, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/posts/9999/like", alice, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestToggleFollow(t *testing.T) {
	_, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	bob := registerAndLogin(t, r, "bob", "b@x.com", "pw5678")

	postID := createPost(t, r, alice, "Hello", "World")

	_, resp := doJSON(t, r, http.MethodPost, postPath(postID, "/follow"), bob, nil)
	if resp.Data["action"] != "followed" {
		t.Fatalf("expected followed, got %v", resp.Data["action"])
	}

	// Viewer sees their own follow state on the post.
	_, resp = doJSON(t, r, http.MethodGet, postPath(postID, ""), bob, nil)
	post, _ := resp.Data["post"].(map[string]interface{})
	if post["followed"] != true {
		t.Fatalf("expected followed=true for bob, got %v", post["followed"])
	}

	// Another user's view is unaffected.
	_, resp = doJSON(t, r, http.MethodGet, postPath(postID, ""), alice, nil)
	post, _ = resp.Data["post"].(map[string]interface{})
	if post["followed"] != false {
		t.Fatalf("expected followed=false for alice, got %v", post["followed"])
	}

	_, resp = doJSON(t, r, http.MethodPost, postPath(postID, "/follow"), bob, nil)
	if resp.Data["action"] != "unfollowed" {
		t.Fatalf("expected unfollowed, got %v", resp.Data["action"])
	}
}

func TestFollowStatusAnonymous(t *testing.T) {
	_, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	bob := registerAndLogin(t, r, "bob", "b@x.com", "pw5678")

	postID := createPost(t, r, alice, "Hello", "World")
	doJSON(t, r, http.MethodPost, postPath(postID, "/follow"), bob, nil)

	// Anonymous viewers have no principal: follow state is always false,
	// not an error.
	w, resp := doJSON(t, r, http.MethodGet, postPath(postID, ""), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous view: expected 200, got %d", w.Code)
	}
	post, _ := resp.Data["post"].(map[string]interface{})
	if post["followed"] != false {
		t.Fatalf("expected followed=false for anonymous, got %v", post["followed"])
	}
}

func TestLikeAndFollowAreIndependent(t *testing.T) {
	db, r := setupTest(t)
	alice := registerAndLogin(t, r, "alice", "a@x.com", "pw1234")
	bob := registerAndLogin(t, r, "bob", "b@x.com", "pw5678")

	postID := createPost(t, r, alice, "Hello", "World")

	doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil)
	doJSON(t, r, http.MethodPost, postPath(postID, "/follow"), bob, nil)
	doJSON(t, r, http.MethodPost, postPath(postID, "/like"), bob, nil) // unlike

	var likes, follows int64
	db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&likes)
	db.Model(&models.PostFollow{}).Where("post_id = ?", postID).Count(&follows)
	if likes != 0 {
		t.Fatalf("expected 0 likes after unlike, got %d", likes)
	}
	if follows != 1 {
		t.Fatalf("expected follow untouched by unlike, got %d", follows)
	}
}

package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starsight/starsight-be/pkg/starsight"
)

func TestSnippetsHandler_GetNavigation(t *testing.T) {
	f := newFixture(t)

	for _, key := range []string{itoa(f.header.ID), "header"} {
		t.Run(key, func(t *testing.T) {
			w := f.get("/api/v2/navigations/" + key + "/")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			body := decodeBody(t, w)

			assert.Equal(t, "Header", body["title"])
			assert.Equal(t, "header", body["slug"])
			meta := body["meta"].(map[string]any)
			assert.Equal(t, starsight.TypeNavigation, meta["type"])
			assert.Equal(t, testBaseURL+"/api/v2/navigations/"+itoa(f.header.ID)+"/", meta["detail_url"])

			links := body["links"].([]any)
			require.Len(t, links, 2)

			internal := links[0].(map[string]any)
			assert.Equal(t, "Articles", internal["title"])
			assert.Equal(t, "/articles/", internal["page"])
			assert.Equal(t, starsight.TypeNavigationLink, internal["meta"].(map[string]any)["type"])

			external := links[1].(map[string]any)
			assert.Nil(t, external["page"])
			assert.Equal(t, "https://example.org", external["url"])
			assert.Equal(t, true, external["open_in_new_page"])
		})
	}
}

func TestSnippetsHandler_NavigationAmbiguousSlug(t *testing.T) {
	f := newFixture(t)

	// Records written before slugs were unique.
	f.repo.PutNavigation(&starsight.Navigation{Title: "Footer", Slug: "footer"})
	f.repo.PutNavigation(&starsight.Navigation{Title: "Footer", Slug: "footer"})

	w := f.get("/api/v2/navigations/footer/")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v2/navigations/?slug=footer", w.Header().Get("Location"))

	total, items := listingItems(t, f.get("/api/v2/navigations/?slug=footer"))
	assert.Equal(t, 2, total)
	assert.Len(t, items, 2)

	w = f.get("/api/v2/navigations/find/?slug=footer")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/api/v2/navigations/?slug=footer", w.Header().Get("Location"))
}

func TestSnippetsHandler_ListNavigations(t *testing.T) {
	f := newFixture(t)

	total, items := listingItems(t, f.get("/api/v2/navigations/"))
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "header", items[0]["slug"])

	w := f.get("/api/v2/navigations/?title=Header")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.get("/api/v2/navigations/find/?slug=header")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, testBaseURL+"/api/v2/navigations/"+itoa(f.header.ID)+"/", w.Header().Get("Location"))

	w = f.get("/api/v2/navigations/find/?slug=sidebar")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnippetsHandler_Topics(t *testing.T) {
	f := newFixture(t)

	t.Run("list ordered by name", func(t *testing.T) {
		total, items := listingItems(t, f.get("/api/v2/topics/"))
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, "Arctic", items[0]["name"])
		assert.Equal(t, "Climate & Policy", items[1]["name"])
	})

	t.Run("detail by slug", func(t *testing.T) {
		w := f.get("/api/v2/topics/climate-policy/")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.EqualValues(t, f.topic.ID, body["id"])
		assert.Equal(t, "climate-policy", body["slug"])
		assert.Equal(t, starsight.TypeTopic, body["meta"].(map[string]any)["type"])
	})

	t.Run("detail by id", func(t *testing.T) {
		w := f.get("/api/v2/topics/" + itoa(f.topic.ID))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "Climate & Policy", decodeBody(t, w)["name"])
	})

	t.Run("find", func(t *testing.T) {
		w := f.get("/api/v2/topics/find/?slug=arctic")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Contains(t, w.Header().Get("Location"), testBaseURL+"/api/v2/topics/")
	})

	t.Run("unknown slug", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, f.get("/api/v2/topics/oceans/").Code)
	})
}

func TestSnippetsHandler_Authors(t *testing.T) {
	f := newFixture(t)

	t.Run("list", func(t *testing.T) {
		total, items := listingItems(t, f.get("/api/v2/authors/"))
		assert.Equal(t, 2, total)
		require.Len(t, items, 2)
		assert.Equal(t, "Jane Doe", items[0]["name"])
	})

	t.Run("email hidden unless opted in", func(t *testing.T) {
		w := f.get("/api/v2/authors/" + itoa(f.jane.ID) + "/")
		require.Equal(t, http.StatusOK, w.Code)
		body := decodeBody(t, w)
		assert.Contains(t, body, "email")
		assert.Nil(t, body["email"])
		assert.Nil(t, body["image"])

		w = f.get("/api/v2/authors/" + itoa(f.alex.ID) + "/")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "alex@example.com", decodeBody(t, w)["email"])
	})

	t.Run("no slug lookup", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.get("/api/v2/authors/jdoe/").Code)
	})

	t.Run("slug is not a listing filter", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, f.get("/api/v2/authors/?slug=jdoe").Code)
	})
}

package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paginationFor(t *testing.T, target string) Pagination {
	t.Helper()

	var got Pagination
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		got = ParsePagination(c)
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	return got
}

func TestParsePagination(t *testing.T) {
	pg := paginationFor(t, "/")
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, pg)

	pg = paginationFor(t, "/?page=3&limit=10")
	assert.Equal(t, Pagination{Page: 3, Limit: 10, Offset: 20}, pg)

	pg = paginationFor(t, "/?page=-1&limit=500")
	assert.Equal(t, Pagination{Page: 1, Limit: 100, Offset: 0}, pg)

	pg = paginationFor(t, "/?page=abc&limit=xyz")
	assert.Equal(t, Pagination{Page: 1, Limit: 20, Offset: 0}, pg)
}

func TestPaginationMeta(t *testing.T) {
	meta := Pagination{Page: 2, Limit: 20, Offset: 20}.Meta(45)

	assert.Equal(t, 2, meta["current"])
	assert.Equal(t, int64(3), meta["total_pages"])
	assert.Equal(t, int64(45), meta["total_results"])
	assert.Equal(t, 20, meta["limit"])
}

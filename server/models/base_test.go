package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePaging(t *testing.T) {
	page, pageSize := normalizePaging(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DEFAULT_PAGE_SIZE, pageSize)

	page, pageSize = normalizePaging(-4, -1)
	assert.Equal(t, 1, page)
	assert.Equal(t, DEFAULT_PAGE_SIZE, pageSize)

	page, pageSize = normalizePaging(3, 5000)
	assert.Equal(t, 3, page)
	assert.Equal(t, MAX_PAGE_SIZE, pageSize)

	page, pageSize = normalizePaging(2, 25)
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, pageSize)
}

func TestNewPaging(t *testing.T) {
	paging := newPaging(2, 10, 35)
	assert.EqualValues(t, 2, paging.Page)
	assert.EqualValues(t, 35, paging.Total)
	assert.EqualValues(t, 4, paging.Pages, "pages is ceil(total/limit)")

	paging = newPaging(1, 10, 0)
	assert.EqualValues(t, 1, paging.Pages, "an empty result still has one page")

	paging = newPaging(1, 10, 10)
	assert.EqualValues(t, 1, paging.Pages)
}

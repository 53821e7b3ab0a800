package starsight

import (
	"slices"
	"strconv"
	"strings"
)

type pageRule struct {
	// parents lists the kinds allowed as parent; an empty kind means the site root.
	parents  []PageKind
	maxCount int
	leaf     bool
}

var pageRules = map[PageKind]pageRule{
	KindHomePage:           {parents: []PageKind{""}, maxCount: 1},
	KindArticleListingPage: {parents: []PageKind{KindHomePage}, maxCount: 1},
	KindArticleDetailPage:  {parents: []PageKind{KindArticleListingPage}, leaf: true},
}

// CanCreateUnder reports whether a page of kind k may be created under a
// parent of kind parent. An empty parent kind stands for the site root.
func (k PageKind) CanCreateUnder(parent PageKind) bool {
	rule, ok := pageRules[k]
	if !ok {
		return false
	}
	if r, ok := pageRules[parent]; ok && r.leaf {
		return false
	}
	return slices.Contains(rule.parents, parent)
}

// MaxCount returns the maximum number of pages of kind k, 0 for unlimited.
func (k PageKind) MaxCount() int {
	return pageRules[k].maxCount
}

// PathFor returns the materialized path of a page with id under parentPath.
func PathFor(parentPath string, id int64) string {
	if parentPath == "" {
		parentPath = "/"
	}
	return parentPath + strconv.FormatInt(id, 10) + "/"
}

func parsePath(path string) []int64 {
	var ids []int64
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil
		}
		ids = append(ids, id)
	}
	return ids
}

// UnderRestriction reports whether path lies inside any of the restricted
// page paths, the restricted page itself included.
func UnderRestriction(path string, restricted []string) bool {
	for _, r := range restricted {
		if strings.HasPrefix(path, r) {
			return true
		}
	}
	return false
}

package starsight

import "context"

// FrontPagePostLimit is the number of posts shown on the article listing page.
const FrontPagePostLimit = 6

// ListingSummary computes the aggregates of an article listing page: the
// number of live public children and the newest posts. Posts are ordered by
// first publication, newest first, ties in creation order.
func (s *service) ListingSummary(ctx context.Context, listing *Page) (*ListingSummary, error) {
	parentID := listing.ID
	_, total, err := s.repository.ListPages(ctx, PageFilter{
		ChildOf: &parentID, LiveOnly: true, PublicOnly: true, Limit: 1,
	})
	if err != nil {
		return nil, err
	}
	posts, _, err := s.repository.ListPages(ctx, PageFilter{
		ChildOf:    &parentID,
		Kind:       KindArticleDetailPage,
		LiveOnly:   true,
		PublicOnly: true,
		OrderBy:    "-first_published_at",
		Limit:      FrontPagePostLimit,
	})
	if err != nil {
		return nil, err
	}
	return &ListingSummary{TotalPostNumber: total, FrontPagePosts: posts}, nil
}

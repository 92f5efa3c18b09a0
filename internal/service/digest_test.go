package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"

	"github.com/pribylovaa/go-digest-proxy/internal/models"
	"github.com/pribylovaa/go-digest-proxy/internal/reader"
	"github.com/pribylovaa/go-digest-proxy/mocks"
)

func errRequest() error { return fmt.Errorf("%w: status=500", reader.ErrRequest) }
func errTimeout() error { return fmt.Errorf("%w: deadline", reader.ErrTimeout) }
func errDecode() error  { return fmt.Errorf("%w: unexpected EOF", reader.ErrDecode) }

// Слитая последовательность отсортирована по убыванию published,
// каждая статья обогащена полями владеющей ленты.
func TestDigest_OrderingAndEnrichment(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	subs := []models.Subscription{
		sub("feed/1", "one", ""),
		sub("feed/2", "two", ""),
	}

	cl.EXPECT().Subscriptions(gomock.Any()).Return(subs, nil)
	// Ленты отдают статьи в «неотсортированном» относительно друг друга
	// порядке: первая лента — более старую.
	cl.EXPECT().StreamContents(gomock.Any(), "1", 1).
		Return([]models.Item{item("a", 1697000000)}, nil)
	cl.EXPECT().StreamContents(gomock.Any(), "2", 1).
		Return([]models.Item{item("b", 1697100000)}, nil)

	svc := newTestService(cl)

	resp, err := svc.Digest(context.Background(), Params{})
	require.NoError(t, err)

	require.Equal(t, 2, resp.TotalItems)
	require.Len(t, resp.Items, 2)

	require.Equal(t, "b", resp.Items[0].ID)
	require.EqualValues(t, 1697100000, resp.Items[0].Published)
	require.Equal(t, "a", resp.Items[1].ID)
	require.EqualValues(t, 1697000000, resp.Items[1].Published)

	require.Equal(t, "feed/2", resp.Items[0].FeedID)
	require.Equal(t, "two", resp.Items[0].FeedTitle)
	require.Equal(t, "https://two.example", resp.Items[0].FeedHTMLURL)
	require.Equal(t, "https://two.example/icon.png", resp.Items[0].FeedIconURL)
}

// Повторный запрос с теми же (label, n) в пределах TTL не ходит к
// апстриму; page/limit в ключ не входят.
func TestDigest_CacheHit_SingleUpstreamRound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{sub("feed/1", "one", "")}, nil).
		Times(1)
	cl.EXPECT().StreamContents(gomock.Any(), "1", 2).
		Return([]models.Item{item("a", 10), item("b", 5)}, nil).
		Times(1)

	svc := newTestService(cl)

	first, err := svc.Digest(context.Background(), Params{N: 2, Page: 1, Limit: 1})
	require.NoError(t, err)

	second, err := svc.Digest(context.Background(), Params{N: 2, Page: 2, Limit: 1})
	require.NoError(t, err)

	require.Equal(t, first.TotalItems, second.TotalItems)
	require.Equal(t, "a", first.Items[0].ID)
	require.Equal(t, "b", second.Items[0].ID)
}

// Страницы кэшированного дайджеста образуют разбиение полной
// последовательности: без пересечений и дыр.
func TestDigest_Pagination_Partition(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{sub("feed/1", "one", "")}, nil).
		Times(1)
	cl.EXPECT().StreamContents(gomock.Any(), "1", 5).
		Return([]models.Item{
			item("a", 50), item("b", 40), item("c", 30), item("d", 20), item("e", 10),
		}, nil).
		Times(1)

	svc := newTestService(cl)

	var got []string
	for page := 1; page <= 3; page++ {
		resp, err := svc.Digest(context.Background(), Params{N: 5, Page: page, Limit: 2})
		require.NoError(t, err)
		require.Equal(t, 5, resp.TotalItems)

		for _, it := range resp.Items {
			got = append(got, it.ID)
		}
	}

	require.Equal(t, []string{"a", "b", "c", "d", "e"}, got)

	// Страница за пределами последовательности пуста, totalItems прежний.
	resp, err := svc.Digest(context.Background(), Params{N: 5, Page: 4, Limit: 2})
	require.NoError(t, err)
	require.Empty(t, resp.Items)
	require.Equal(t, 5, resp.TotalItems)
}

// Отказ одной ленты после исчерпания ретраев не валит запрос:
// дайджест собирается из остальных.
func TestDigest_PartialFailure_Isolated(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{
			sub("feed/1", "one", ""),
			sub("feed/2", "two", ""),
		}, nil)
	cl.EXPECT().StreamContents(gomock.Any(), "1", 1).
		Return([]models.Item{item("a", 100)}, nil)
	// 1 попытка + 2 ретрая.
	cl.EXPECT().StreamContents(gomock.Any(), "2", 1).
		Return(nil, errRequest()).
		Times(3)

	svc := newTestService(cl)

	resp, err := svc.Digest(context.Background(), Params{})
	require.NoError(t, err)

	require.Equal(t, 1, resp.TotalItems)
	require.Equal(t, "a", resp.Items[0].ID)
	require.Equal(t, "feed/1", resp.Items[0].FeedID)
}

// Транспортная ошибка первой попытки и успех второй: лента в выдаче,
// вызовов ровно два.
func TestDigest_RetrySecondAttemptSucceeds(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{sub("feed/1", "one", "")}, nil)

	gomock.InOrder(
		cl.EXPECT().StreamContents(gomock.Any(), "1", 1).
			Return(nil, errRequest()),
		cl.EXPECT().StreamContents(gomock.Any(), "1", 1).
			Return([]models.Item{item("a", 100)}, nil),
	)

	svc := newTestService(cl)

	resp, err := svc.Digest(context.Background(), Params{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalItems)
	require.Equal(t, "a", resp.Items[0].ID)
}

// Подписка с невалидным id исключается до фан-аута: ноль вызовов,
// ноль статей, запрос успешен.
func TestDigest_InvalidFeedID_Excluded(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{
			sub("feed/abc", "bad", ""),
			sub("", "missing", ""),
			sub("feed/3", "ok", ""),
		}, nil)
	// Загружается только валидная лента.
	cl.EXPECT().StreamContents(gomock.Any(), "3", 1).
		Return([]models.Item{item("a", 100)}, nil)

	svc := newTestService(cl)

	resp, err := svc.Digest(context.Background(), Params{})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalItems)
	require.Equal(t, "feed/3", resp.Items[0].FeedID)
}

// Фильтр по метке: загружаются только подписки с точным совпадением label.
func TestDigest_LabelFilter(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return([]models.Subscription{
			sub("feed/1", "one", "favs"),
			sub("feed/2", "two", ""),
		}, nil)
	cl.EXPECT().StreamContents(gomock.Any(), "1", 1).
		Return([]models.Item{item("a", 100)}, nil)

	svc := newTestService(cl)

	resp, err := svc.Digest(context.Background(), Params{Label: "favs"})
	require.NoError(t, err)
	require.Equal(t, 1, resp.TotalItems)
	require.Equal(t, "feed/1", resp.Items[0].FeedID)
}

// Отказ каталога подписок валит агрегацию целиком (без ретраев).
func TestDigest_DirectoryUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return(nil, errRequest()).
		Times(1)

	svc := newTestService(cl)

	_, err := svc.Digest(context.Background(), Params{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDirectoryUnavailable)
}

func TestDigest_DirectoryDecode(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return(nil, errDecode())

	svc := newTestService(cl)

	_, err := svc.Digest(context.Background(), Params{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDirectoryDecode)
}

// Таймаут каталога — тоже транзиентный отказ каталога: 502-эквивалент.
func TestDigest_DirectoryTimeout_MapsToUnavailable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	cl := mocks.NewMockClient(ctrl)

	cl.EXPECT().Subscriptions(gomock.Any()).
		Return(nil, errTimeout())

	svc := newTestService(cl)

	_, err := svc.Digest(context.Background(), Params{})
	require.Error(t, err)
	require.ErrorIs(t, err, ErrDirectoryUnavailable)
}

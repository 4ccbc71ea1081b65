package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserIDDecodesNumbersAndStrings(t *testing.T) {
	var payload struct {
		A UserID  `json:"a"`
		B UserID  `json:"b"`
		C *UserID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a":42,"b":"42","c":null}`), &payload))

	assert.Equal(t, UserID("42"), payload.A)
	assert.Equal(t, payload.A, payload.B)
	assert.Nil(t, payload.C)
}

func TestUserIDEncodesNumericAsNumber(t *testing.T) {
	out, err := json.Marshal(map[string]UserID{"num": "7", "str": "kim"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"num":7,"str":"kim"}`, string(out))
}

func TestUserIDKeepsNonCanonicalNumbersAsStrings(t *testing.T) {
	out, err := json.Marshal(map[string]UserID{"zero": "007", "plus": "+5", "neg": "-3"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"zero":"007","plus":"+5","neg":-3}`, string(out))
}

func TestOriginFor(t *testing.T) {
	mine := ChatMessage{SenderID: "1", Kind: MessageKindText}
	theirs := ChatMessage{SenderID: "2", Kind: MessageKindImage}
	notice := ChatMessage{SenderID: "1", Kind: MessageKindNotice}

	assert.Equal(t, OriginMe, mine.OriginFor("1"))
	assert.Equal(t, OriginOther, theirs.OriginFor("1"))
	assert.Equal(t, OriginNotice, notice.OriginFor("1"))
	assert.Equal(t, OriginOther, mine.OriginFor(""))
}

func TestNormalizeKind(t *testing.T) {
	assert.Equal(t, MessageKindText, NormalizeKind(""))
	assert.Equal(t, MessageKindText, NormalizeKind("sticker"))
	assert.Equal(t, MessageKindImage, NormalizeKind("image"))
}

func TestFilterStateQuery(t *testing.T) {
	q := DefaultFilterState().Query()
	assert.Equal(t, "latest", q.Get("sortBy"))
	assert.False(t, q.Has("categoryId"))
	assert.False(t, q.Has("regionId"))
	assert.False(t, q.Has("status"))

	q = FilterState{Available: true, Location: 3, Category: 5, SortOption: SortPopular}.Query()
	assert.Equal(t, "5", q.Get("categoryId"))
	assert.Equal(t, "3", q.Get("regionId"))
	assert.Equal(t, "available", q.Get("status"))
	assert.Equal(t, "popular", q.Get("sortBy"))
}

func TestFilterStateMatches(t *testing.T) {
	buyer := UserID("9")
	sold := Listing{ID: 1, Region: Region{ID: 3}, Category: Category{ID: 5}, BuyerID: &buyer}
	open := Listing{ID: 2, Region: Region{ID: 3}, Category: Category{ID: 5}}

	f := FilterState{Available: true}
	assert.False(t, f.Matches(sold))
	assert.True(t, f.Matches(open))

	f = FilterState{Location: 4}
	assert.False(t, f.Matches(open))

	f = FilterState{Category: 5, Location: 3}
	assert.True(t, f.Matches(sold))
}

func TestListingCoverImage(t *testing.T) {
	assert.Equal(t, "a.png", Listing{ImgURL: "a.png", Images: []string{"b.png"}}.CoverImage())
	assert.Equal(t, "b.png", Listing{Images: []string{"b.png"}}.CoverImage())
	assert.Empty(t, Listing{}.CoverImage())
}

func TestChatRoomIsHost(t *testing.T) {
	room := ChatRoom{ChatHost: "1", ChatGuest: "2"}
	assert.True(t, room.IsHost("1"))
	assert.False(t, room.IsHost("2"))
	assert.False(t, room.IsHost(""))
}

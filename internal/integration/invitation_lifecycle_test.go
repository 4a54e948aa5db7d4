package integration

import (
	"context"
	"testing"
	"time"

	"github.com/campusconnect/campusconnect/internal/expiry"
	"github.com/campusconnect/campusconnect/internal/invitations"
	"github.com/campusconnect/campusconnect/internal/pagination"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func createTestUser(t *testing.T, pool *pgxpool.Pool, email string) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO users (email, password_hash, first_name, last_name, role)
		VALUES ($1, 'x', 'Test', 'User', 'STUDENT')
		RETURNING id
	`, email).Scan(&id)
	require.NoError(t, err)
	return id
}

func createTestPost(t *testing.T, pool *pgxpool.Pool, authorID uuid.UUID, deadline *time.Time) uuid.UUID {
	t.Helper()

	var id uuid.UUID
	err := pool.QueryRow(context.Background(), `
		INSERT INTO posts (author_id, title, description, deadline)
		VALUES ($1, 'Compiler study group', 'Looking for collaborators', $2)
		RETURNING id
	`, authorID, deadline).Scan(&id)
	require.NoError(t, err)
	return id
}

func countTeamMembers(t *testing.T, pool *pgxpool.Pool, postID uuid.UUID) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(), `
		SELECT COUNT(*) FROM team_members WHERE post_id = $1
	`, postID).Scan(&n)
	require.NoError(t, err)
	return n
}

func TestAcceptCreatesTeamMembership(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")
	postID := createTestPost(t, pool, author, nil)

	message := "Join my project?"
	sent, err := svc.Send(ctx, postID, invitee, author, &message)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusPending, sent.Status)
	require.Nil(t, sent.RespondedAt)
	require.Equal(t, author, sent.InvitedBy.ID)
	require.Equal(t, invitee, sent.InvitedUser.ID)
	require.Equal(t, "Compiler study group", sent.Post.Title)

	accepted, err := svc.Accept(ctx, sent.ID, invitee)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	members, err := svc.TeamMembers(ctx, postID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	require.Equal(t, invitee, members[0].UserID)
	require.Equal(t, invitations.RoleMember, members[0].Role)
}

func TestSendDuplicateAndReuse(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")
	postID := createTestPost(t, pool, author, nil)

	first, err := svc.Send(ctx, postID, invitee, author, nil)
	require.NoError(t, err)

	// A pending invitation for the same pair is a conflict.
	_, err = svc.Send(ctx, postID, invitee, author, nil)
	require.ErrorIs(t, err, invitations.ErrInvitePending)

	_, err = svc.Reject(ctx, first.ID, invitee)
	require.NoError(t, err)

	// After a terminal response the pair's row is reused and reset.
	message := "Reconsider?"
	second, err := svc.Send(ctx, postID, invitee, author, &message)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, invitations.StatusPending, second.Status)
	require.Nil(t, second.RespondedAt)
	require.Equal(t, &message, second.Message)
}

func TestSendUnknownTargets(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")
	postID := createTestPost(t, pool, author, nil)

	_, err := svc.Send(ctx, uuid.New(), invitee, author, nil)
	require.ErrorIs(t, err, invitations.ErrPostNotFound)

	_, err = svc.Send(ctx, postID, uuid.New(), author, nil)
	require.ErrorIs(t, err, invitations.ErrUserNotFound)
}

func TestTransitionAuthorization(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")
	stranger := createTestUser(t, pool, "stranger@example.edu")
	postID := createTestPost(t, pool, author, nil)

	sent, err := svc.Send(ctx, postID, invitee, author, nil)
	require.NoError(t, err)

	// Only the invitee may respond.
	_, err = svc.Accept(ctx, sent.ID, stranger)
	require.ErrorIs(t, err, invitations.ErrNotInvitee)
	_, err = svc.Accept(ctx, sent.ID, author)
	require.ErrorIs(t, err, invitations.ErrNotInvitee)
	_, err = svc.Reject(ctx, sent.ID, stranger)
	require.ErrorIs(t, err, invitations.ErrNotInvitee)

	// Only the sender may cancel.
	_, err = svc.Cancel(ctx, sent.ID, invitee)
	require.ErrorIs(t, err, invitations.ErrNotSender)

	// Disconnect requires the post to be closed first.
	_, err = svc.Disconnect(ctx, sent.ID, invitee)
	require.ErrorIs(t, err, invitations.ErrPostNotClosed)

	// Accepting twice fails on the second transition.
	_, err = svc.Accept(ctx, sent.ID, invitee)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, sent.ID, invitee)
	require.ErrorIs(t, err, invitations.ErrNotPending)
	_, err = svc.Cancel(ctx, sent.ID, author)
	require.ErrorIs(t, err, invitations.ErrNotPending)
}

func TestClosePostCascade(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	accepter1 := createTestUser(t, pool, "accepter1@example.edu")
	accepter2 := createTestUser(t, pool, "accepter2@example.edu")
	pending := createTestUser(t, pool, "pending@example.edu")
	postID := createTestPost(t, pool, author, nil)

	inv1, err := svc.Send(ctx, postID, accepter1, author, nil)
	require.NoError(t, err)
	inv2, err := svc.Send(ctx, postID, accepter2, author, nil)
	require.NoError(t, err)
	invPending, err := svc.Send(ctx, postID, pending, author, nil)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, inv1.ID, accepter1)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, inv2.ID, accepter2)
	require.NoError(t, err)
	require.Equal(t, 2, countTeamMembers(t, pool, postID))

	// Only the author may close.
	_, err = svc.ClosePost(ctx, postID, accepter1)
	require.ErrorIs(t, err, invitations.ErrNotAuthor)

	result, err := svc.ClosePost(ctx, postID, author)
	require.NoError(t, err)
	require.Equal(t, 2, result.DisconnectedConnections)
	require.Equal(t, "CLOSED", result.Status)
	require.NotNil(t, result.ClosedAt)

	// Every accepted connection is disconnected and the team is gone.
	require.Equal(t, 0, countTeamMembers(t, pool, postID))
	for _, id := range []uuid.UUID{inv1.ID, inv2.ID} {
		details, err := svc.GetDetails(ctx, id)
		require.NoError(t, err)
		require.Equal(t, invitations.StatusCancelled, details.Status)
	}

	// Pending invitations are untouched by the cascade.
	details, err := svc.GetDetails(ctx, invPending.ID)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusPending, details.Status)

	// A closed post cannot be closed again.
	_, err = svc.ClosePost(ctx, postID, author)
	require.ErrorIs(t, err, invitations.ErrPostNotOpen)

	connections, err := svc.PostConnections(ctx, postID)
	require.NoError(t, err)
	require.Empty(t, connections)
}

func TestDisconnectAfterClosure(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")
	stranger := createTestUser(t, pool, "stranger@example.edu")
	postID := createTestPost(t, pool, author, nil)

	sent, err := svc.Send(ctx, postID, invitee, author, nil)
	require.NoError(t, err)

	_, err = svc.ClosePost(ctx, postID, author)
	require.NoError(t, err)

	// The invitation was still pending at closure, so it survives and can
	// be accepted afterwards.
	accepted, err := svc.Accept(ctx, sent.ID, invitee)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusAccepted, accepted.Status)
	require.Equal(t, 1, countTeamMembers(t, pool, postID))

	// Only a party to the connection may disconnect it.
	_, err = svc.Disconnect(ctx, sent.ID, stranger)
	require.ErrorIs(t, err, invitations.ErrNotParticipant)

	disconnected, err := svc.Disconnect(ctx, sent.ID, invitee)
	require.NoError(t, err)
	require.Equal(t, invitations.StatusCancelled, disconnected.Status)
	require.Equal(t, 0, countTeamMembers(t, pool, postID))
}

func TestStatsAndLists(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	alice := createTestUser(t, pool, "alice@example.edu")
	bob := createTestUser(t, pool, "bob@example.edu")
	carol := createTestUser(t, pool, "carol@example.edu")
	post1 := createTestPost(t, pool, alice, nil)
	post2 := createTestPost(t, pool, bob, nil)

	invBob, err := svc.Send(ctx, post1, bob, alice, nil)
	require.NoError(t, err)
	_, err = svc.Send(ctx, post1, carol, alice, nil)
	require.NoError(t, err)
	invAlice, err := svc.Send(ctx, post2, alice, bob, nil)
	require.NoError(t, err)

	_, err = svc.Accept(ctx, invBob.ID, bob)
	require.NoError(t, err)
	_, err = svc.Reject(ctx, invAlice.ID, alice)
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalSent)
	require.Equal(t, 1, stats.TotalReceived)
	require.Equal(t, 0, stats.AcceptedConnections)
	require.Equal(t, 0, stats.PendingInvitations)

	// Accepted and pending counts cover received invitations only.
	bobStats, err := svc.Stats(ctx, bob)
	require.NoError(t, err)
	require.Equal(t, 1, bobStats.TotalSent)
	require.Equal(t, 1, bobStats.TotalReceived)
	require.Equal(t, 1, bobStats.AcceptedConnections)
	require.Equal(t, 0, bobStats.PendingInvitations)

	carolStats, err := svc.Stats(ctx, carol)
	require.NoError(t, err)
	require.Equal(t, 0, carolStats.TotalSent)
	require.Equal(t, 1, carolStats.TotalReceived)
	require.Equal(t, 1, carolStats.PendingInvitations)

	sent, total, err := svc.ListSent(ctx, alice, nil, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, sent, 2)

	// Status filter narrows the list and the total.
	accepted := invitations.StatusAccepted
	sent, total, err = svc.ListSent(ctx, alice, &accepted, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, sent, 1)
	require.Equal(t, invBob.ID, sent[0].ID)

	received, total, err := svc.ListReceived(ctx, alice, nil, pagination.Params{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Equal(t, invAlice.ID, received[0].ID)

	// Pagination slices the sent list.
	page2, total, err := svc.ListSent(ctx, alice, nil, pagination.Params{Page: 2, Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, page2, 1)

	connections, err := svc.PostConnections(ctx, post1)
	require.NoError(t, err)
	require.Len(t, connections, 1)
	require.Equal(t, bob, connections[0].InvitedUser.ID)
}

func TestDeadlineSweepClosesExpiredPosts(t *testing.T) {
	pool, cleanup := newTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	svc := invitations.NewService(pool)

	author := createTestUser(t, pool, "author@example.edu")
	invitee := createTestUser(t, pool, "invitee@example.edu")

	past := time.Now().Add(-24 * time.Hour)
	future := time.Now().Add(24 * time.Hour)
	expiredPost := createTestPost(t, pool, author, &past)
	openPost := createTestPost(t, pool, author, &future)

	sent, err := svc.Send(ctx, expiredPost, invitee, author, nil)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, sent.ID, invitee)
	require.NoError(t, err)

	require.NoError(t, expiry.RunDeadlineSweep(ctx, svc))

	var status string
	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM posts WHERE id = $1`, expiredPost).Scan(&status))
	require.Equal(t, "CLOSED", status)
	require.Equal(t, 0, countTeamMembers(t, pool, expiredPost))

	require.NoError(t, pool.QueryRow(ctx, `SELECT status FROM posts WHERE id = $1`, openPost).Scan(&status))
	require.Equal(t, "OPEN", status)

	// The sweep is idempotent.
	require.NoError(t, expiry.RunDeadlineSweep(ctx, svc))
}

package roles

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
)

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func clusterMembers(cluster int, ids ...string) []*models.Member {
	out := make([]*models.Member, len(ids))
	for i, id := range ids {
		out[i] = &models.Member{
			Record:    &models.Record{ReferenceID: id, EntityType: models.EntityTypeOrganization},
			ClusterID: models.NewClusterID(cluster),
		}
	}
	return out
}

func assignment(object, owner, billing, correspondence string) models.RoleAssignment {
	return models.RoleAssignment{
		Owner:                   owner,
		OwnerType:               models.EntityTypeOrganization,
		BillingRecipient:        billing,
		BillingType:             models.EntityTypeOrganization,
		CorrespondenceRecipient: correspondence,
		CorrespondenceType:      models.EntityTypeOrganization,
		ProductTypeID:           "FDA",
		ProductID:               "pid-" + object,
		ProductObject:           object,
	}
}

func attach(t *testing.T, members []*models.Member, assignments ...models.RoleAssignment) []*models.RoleMember {
	t.Helper()
	out, _, err := NewAttacher(testLogger(), 2).AttachRoles(context.Background(), members, assignments, "FDA")
	require.NoError(t, err)
	return out
}

func rowIDs(rows []*models.PartitionRow) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Record.ReferenceID + "@" + r.ClusterID.String()
	}
	return out
}

func TestAttachRoles(t *testing.T) {
	members := append(clusterMembers(1, "a", "b"), clusterMembers(2, "c")...)
	other := assignment("x", "a", "a", "a")
	other.ProductTypeID = "OTHER"
	mixed := assignment("o2", "c", "c", "c")
	mixed.OwnerType = models.EntityTypeIndividual

	out, warnings, err := NewAttacher(testLogger(), 4).AttachRoles(context.Background(), members, []models.RoleAssignment{
		assignment("o1", "a", "b", "a"),
		other,
		mixed,
	}, "FDA")

	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"o1"}, out[0].Holdings.Objects[models.RoleOwner])
	assert.Equal(t, []string{"o1"}, out[0].Holdings.Objects[models.RoleCorrespondence])
	assert.Empty(t, out[0].Holdings.Objects[models.RoleBilling])
	assert.Equal(t, "pid-o1", out[1].Holdings.ProductIDFor(models.RoleBilling, "o1"))
	assert.Equal(t, "c", out[2].Record.ReferenceID)

	require.Len(t, warnings, 1)
	assert.Equal(t, clerrors.WarningMixedEntityTypes, warnings[0].Kind)
}

func TestAttachRoles_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := NewAttacher(testLogger(), 1).AttachRoles(ctx, clusterMembers(1, "a", "b"), nil, "FDA")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeepCompleteRoleCoverage(t *testing.T) {
	members := attach(t,
		append(append(clusterMembers(1, "a", "b"), clusterMembers(2, "c", "d")...), clusterMembers(3, "e", "f")...),
		assignment("o1", "a", "b", "a"),
		assignment("o2", "c", "d", ""),
	)

	out := KeepCompleteRoleCoverage(members)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Record.ReferenceID)
	assert.Equal(t, "b", out[1].Record.ReferenceID)
}

func TestKeepTwoRoleCoverage(t *testing.T) {
	members := attach(t,
		append(append(clusterMembers(1, "a", "b"), clusterMembers(2, "c", "d")...), clusterMembers(3, "e", "f")...),
		assignment("o1", "a", "b", ""),
		assignment("o2", "c", "d", "c"),
	)

	out := KeepTwoRoleCoverage(members)

	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].Record.ReferenceID)
}

func TestPolicy_Validate(t *testing.T) {
	assert.NoError(t, Policy{RolesPerProduct: 3, MembersPerProduct: 3}.Validate())
	assert.NoError(t, Policy{RolesPerProduct: 3, MembersPerProduct: 2}.Validate())
	assert.NoError(t, Policy{RolesPerProduct: 2, MembersPerProduct: 2}.Validate())
	assert.Error(t, Policy{RolesPerProduct: 2, MembersPerProduct: 3}.Validate())
	assert.Error(t, Policy{RolesPerProduct: 4, MembersPerProduct: 2}.Validate())

	_, err := Partition("FDA", nil, Policy{RolesPerProduct: 1, MembersPerProduct: 1})
	assert.Error(t, err)
	assert.False(t, clerrors.IsEmptyResult(err))
}

func TestPartition_Complete(t *testing.T) {
	members := attach(t, clusterMembers(1, "a", "b", "c", "d"),
		assignment("o1", "a", "b", "c"),
		assignment("o2", "a", "a", "b"),
		assignment("o3", "d", "c", "b"),
	)

	buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 3, MembersPerProduct: 3})

	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, BucketComplete, buckets[0].Name)
	assert.Equal(t, []string{"a@1_a", "b@1_a", "c@1_a", "b@1_c", "c@1_c", "d@1_c"}, rowIDs(buckets[0].Rows))

	counts := make(map[models.ClusterID]int)
	for _, r := range buckets[0].Rows {
		counts[r.ClusterID]++
	}
	for id, n := range counts {
		assert.GreaterOrEqual(t, n, 2, "subdivision %s", id)
	}

	first := buckets[0].Rows[0]
	assert.Equal(t, "o1", first.Object())
	assert.Equal(t, "pid-o1", first.ProductID[models.RoleOwner])
	assert.Empty(t, first.Objects[models.RoleBilling])
}

func TestPartition_Separate(t *testing.T) {
	members := attach(t, append(clusterMembers(1, "a", "b"), clusterMembers(2, "c", "d")...),
		assignment("o1", "a", "b", "a"),
		assignment("o2", "c", "c", "d"),
	)

	buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 3, MembersPerProduct: 2})

	require.NoError(t, err)
	require.Len(t, buckets, 2)
	assert.Equal(t, BucketBillingSeparate, buckets[0].Name)
	assert.Equal(t, []string{"a@1_a", "b@1_a"}, rowIDs(buckets[0].Rows))
	assert.Equal(t, BucketCorrespondenceSeparate, buckets[1].Name)
	assert.Equal(t, []string{"c@2_a", "d@2_a"}, rowIDs(buckets[1].Rows))
}

func TestPartition_Pairs(t *testing.T) {
	t.Run("owner and billing on distinct members", func(t *testing.T) {
		members := attach(t, clusterMembers(1, "a", "b"), assignment("o1", "a", "b", ""))

		buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 2, MembersPerProduct: 2})

		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, BucketOwnerBilling, buckets[0].Name)
		assert.Equal(t, []string{"a@1_a", "b@1_a"}, rowIDs(buckets[0].Rows))
		assert.Equal(t, "o1", buckets[0].Rows[1].Objects[models.RoleBilling])
	})

	t.Run("one member holding two roles is never a named pair", func(t *testing.T) {
		h := objectHolders{models.RoleOwner: {0}, models.RoleBilling: {0}}
		assert.Equal(t, BucketOther, classifyPairs(h))

		members := attach(t, clusterMembers(1, "a", "b"),
			assignment("o1", "a", "a", ""),
			assignment("o2", "a", "a", "b"),
		)
		buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 2, MembersPerProduct: 2})

		require.NoError(t, err)
		require.Len(t, buckets, 1)
		assert.Equal(t, BucketOther, buckets[0].Name)
		assert.Equal(t, []string{"a@1_b", "b@1_b"}, rowIDs(buckets[0].Rows))
	})

	t.Run("nothing classified yields a notice", func(t *testing.T) {
		members := attach(t, clusterMembers(1, "a", "b"))
		buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 2, MembersPerProduct: 2})
		assert.Empty(t, buckets)
		assert.True(t, clerrors.IsEmptyResult(err))
	})
}

func TestAttachRoles_MixedEntityTypes(t *testing.T) {
	mixed := assignment("o1", "org-a", "org-b", "ind-p")
	mixed.CorrespondenceType = models.EntityTypeIndividual

	attached, warnings, err := NewAttacher(testLogger(), 2).AttachRoles(context.Background(), clusterMembers(1, "org-a", "org-b"), []models.RoleAssignment{mixed}, "FDA")
	require.NoError(t, err)

	require.Len(t, warnings, 1)
	assert.Equal(t, clerrors.WarningMixedEntityTypes, warnings[0].Kind)
	assert.Equal(t, "org-a", warnings[0].ReferenceID)
	for _, m := range attached {
		for _, role := range models.Roles {
			assert.Empty(t, m.Holdings.Objects[role], "%s %s", m.Record.ReferenceID, role)
		}
	}

	for _, policy := range []Policy{
		{RolesPerProduct: 3, MembersPerProduct: 3},
		{RolesPerProduct: 3, MembersPerProduct: 2},
		{RolesPerProduct: 2, MembersPerProduct: 2},
	} {
		t.Run(policy.String(), func(t *testing.T) {
			buckets, err := Partition("FDA", attached, policy)
			assert.Empty(t, buckets)
			assert.True(t, clerrors.IsEmptyResult(err))
		})
	}
}

func TestPartition_SuffixFollowsSortedObjects(t *testing.T) {
	// o1 is rejected under 3/3 but still takes suffix a
	members := attach(t, clusterMembers(1, "a", "b", "c"),
		assignment("o1", "a", "a", "b"),
		assignment("o2", "a", "b", "c"),
	)

	buckets, err := Partition("FDA", members, Policy{RolesPerProduct: 3, MembersPerProduct: 3})

	require.NoError(t, err)
	require.Len(t, buckets, 1)
	assert.Equal(t, []string{"a@1_b", "b@1_b", "c@1_b"}, rowIDs(buckets[0].Rows))
}

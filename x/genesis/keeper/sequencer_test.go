package keeper_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/x/genesis/keeper"
	"github.com/lexamoris/synthia/x/genesis/testutil"
	"github.com/lexamoris/synthia/x/genesis/types"
)

var fixedNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

type fixture struct {
	ctx    context.Context
	pinner *testutil.MockStoragePinner
	seq    *keeper.Sequencer
}

func initFixture(t *testing.T, policies types.PolicyRegistry, opts ...keeper.Option) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	pinner := testutil.NewMockStoragePinner(ctrl)
	opts = append([]keeper.Option{keeper.WithClock(fixedClock)}, opts...)
	seq, err := keeper.NewSequencer(constants.Default(), policies, pinner, opts...)
	require.NoError(t, err)
	return &fixture{
		ctx:    context.Background(),
		pinner: pinner,
		seq:    seq,
	}
}

func withPolicy(name string, rec types.PolicyRecord) types.PolicyRegistry {
	records := types.DefaultPolicyRegistry().Records()
	records[name] = rec
	return types.NewPolicyRegistry(records)
}

func TestNewSequencerRejectsInvalidTable(t *testing.T) {
	table := constants.Default()
	table.MaxNetworkNodes = 0
	_, err := keeper.NewSequencer(table, types.DefaultPolicyRegistry(), nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "max network nodes")
}

func TestGenesisStateBeforeInitialize(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	state := f.seq.GenesisState()
	require.False(t, state.Initialized)
	require.Empty(t, state.NetworkNodes)
	require.Nil(t, state.SovereigntyState)
	require.Empty(t, state.Timestamp)
	require.Equal(t, "uninitialized", state.Phase)
	require.Equal(t, "1.0.0", state.Version)
	require.Equal(t, keeper.PhaseUninitialized, f.seq.Phase())
	require.Nil(t, f.seq.PinResult())
}

func TestInitialize(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	pinned := testutil.TestCid(t, "genesis")
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, payload types.PinPayload) (cid.Cid, error) {
			assert.Equal(t, "1.0.0", payload.Version)
			assert.Equal(t, constants.Default(), payload.Constants)
			assert.Equal(t, 6, payload.Principles.Len())
			assert.Equal(t, constants.FormatTimestamp(fixedNow), payload.Timestamp)
			return pinned, nil
		}).Times(1)

	state, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	require.True(t, state.Initialized)
	require.True(t, f.seq.IsInitialized())
	require.Equal(t, keeper.PhaseInitialized, f.seq.Phase())
	require.Equal(t, constants.FormatTimestamp(fixedNow), state.Timestamp)
	require.Equal(t, pinned.String(), state.StorageAddress)
	require.Empty(t, state.PinError)

	require.Len(t, state.NetworkNodes, 1)
	node := state.NetworkNodes[0]
	require.Equal(t, types.GenesisNodeID, node.ID)
	require.Equal(t, types.NodeTypeMycelial, node.Type)
	require.True(t, node.Synchronized)
	require.Equal(t, constants.Default().ResonanceFrequency, node.Frequency)
	require.Equal(t, constants.Default().GenesisTimestamp, node.Timestamp)

	require.Equal(t, &types.SovereigntyState{
		NSRActive:         true,
		EnforcementLevel:  "kernel-level",
		BioEthicalConsent: true,
	}, state.SovereigntyState)

	// second call has no side effects, the pinner is not called again
	again, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	require.Equal(t, state, again)
	require.Equal(t, state, f.seq.GenesisState())

	c, err := f.seq.PinResult().Wait(f.ctx)
	require.NoError(t, err)
	require.True(t, c.Equals(pinned))
}

func TestSnapshotIsACopy(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).Return(testutil.TestCid(t, "genesis"), nil)

	state, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	state.NetworkNodes[0].Frequency = 1
	state.SovereigntyState.NSRActive = false

	fresh := f.seq.GenesisState()
	require.Equal(t, constants.Default().ResonanceFrequency, fresh.NetworkNodes[0].Frequency)
	require.True(t, fresh.SovereigntyState.NSRActive)
}

func TestInitializePolicyViolation(t *testing.T) {
	tests := []struct {
		desc   string
		policy string
		record types.PolicyRecord
		errMsg string
	}{
		{
			desc:   "immutable policy disabled",
			policy: types.PolicyNonSlaveryRule,
			record: types.PolicyRecord{Enabled: false, Immutable: true},
			errMsg: "immutable principle NON_SLAVERY_RULE cannot be disabled",
		},
		{
			desc:   "mutable policy disabled",
			policy: types.PolicySelfHealing,
			record: types.PolicyRecord{Enabled: false},
			errMsg: "sovereignty principle SELF_HEALING must be enabled",
		},
	}
	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			// the pinner has no expectations, any call fails the test
			f := initFixture(t, withPolicy(tc.policy, tc.record))
			_, err := f.seq.Initialize(f.ctx)
			require.ErrorIs(t, err, types.ErrPolicyViolation)
			require.Contains(t, err.Error(), tc.errMsg)

			state := f.seq.GenesisState()
			require.False(t, state.Initialized)
			require.Empty(t, state.NetworkNodes)
			require.Equal(t, keeper.PhaseUninitialized, f.seq.Phase())
		})
	}
}

func TestInitializeNonSlaveryRuleNotImmutable(t *testing.T) {
	f := initFixture(t, withPolicy(types.PolicyNonSlaveryRule, types.PolicyRecord{Enabled: true}))

	_, err := f.seq.Initialize(f.ctx)
	require.ErrorIs(t, err, types.ErrPolicyViolation)
	require.Contains(t, err.Error(), "must be enabled and immutable")

	// the node seeded before the failure is kept
	state := f.seq.GenesisState()
	require.False(t, state.Initialized)
	require.Len(t, state.NetworkNodes, 1)
	require.True(t, state.NetworkNodes[0].Synchronized)
	require.Nil(t, state.SovereigntyState)
	require.Equal(t, keeper.PhaseResonanceSynced, f.seq.Phase())

	// a retry resumes at the failed step and does not seed a second node
	_, err = f.seq.Initialize(f.ctx)
	require.ErrorIs(t, err, types.ErrPolicyViolation)
	require.Len(t, f.seq.GenesisState().NetworkNodes, 1)
}

func TestInitializeNonSlaveryRuleMissing(t *testing.T) {
	records := types.DefaultPolicyRegistry().Records()
	delete(records, types.PolicyNonSlaveryRule)
	f := initFixture(t, types.NewPolicyRegistry(records))

	_, err := f.seq.Initialize(f.ctx)
	require.ErrorIs(t, err, types.ErrPolicyViolation)
	require.Contains(t, err.Error(), "NON_SLAVERY_RULE is not registered")
}

func TestInitializePinFailureIsNotFatal(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).Return(cid.Undef, errors.New("storage offline"))

	state, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	require.True(t, state.Initialized)
	require.Empty(t, state.StorageAddress)
	require.Contains(t, state.PinError, "storage offline")
	require.Contains(t, state.PinError, "failed to pin genesis state")
}

func TestInitializePinTimeout(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry(), keeper.WithPinTimeout(20*time.Millisecond))
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ types.PinPayload) (cid.Cid, error) {
			<-ctx.Done()
			return cid.Undef, ctx.Err()
		})

	start := time.Now()
	state, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	require.Less(t, time.Since(start), 5*time.Second)
	require.True(t, state.Initialized)
	require.Contains(t, state.PinError, context.DeadlineExceeded.Error())
}

func TestInitializeBackgroundPin(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry(), keeper.WithBackgroundPin())
	release := make(chan struct{})
	pinned := testutil.TestCid(t, "background")
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(context.Context, types.PinPayload) (cid.Cid, error) {
			<-release
			return pinned, nil
		})

	state, err := f.seq.Initialize(f.ctx)
	require.NoError(t, err)
	require.True(t, state.Initialized)
	require.Empty(t, state.StorageAddress)

	future := f.seq.PinResult()
	require.NotNil(t, future)
	close(release)
	c, err := future.Wait(f.ctx)
	require.NoError(t, err)
	require.True(t, c.Equals(pinned))
	require.Eventually(t, func() bool {
		return f.seq.GenesisState().StorageAddress == pinned.String()
	}, time.Second, 5*time.Millisecond)
}

func TestInitializeWithoutPinner(t *testing.T) {
	seq, err := keeper.NewSequencer(constants.Default(), types.DefaultPolicyRegistry(), nil)
	require.NoError(t, err)
	state, err := seq.Initialize(context.Background())
	require.NoError(t, err)
	require.True(t, state.Initialized)
	require.Empty(t, state.StorageAddress)
	require.Nil(t, seq.PinResult())
}

func TestInitializeCancelledContext(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	_, err := f.seq.Initialize(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, keeper.PhaseUninitialized, f.seq.Phase())
}

func TestInitializeConcurrentCallers(t *testing.T) {
	f := initFixture(t, types.DefaultPolicyRegistry())
	f.pinner.EXPECT().Pin(gomock.Any(), gomock.Any()).Return(testutil.TestCid(t, "genesis"), nil).Times(1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			state, err := f.seq.Initialize(f.ctx)
			assert.NoError(t, err)
			assert.True(t, state.Initialized)
		}()
	}
	wg.Wait()
	require.Len(t, f.seq.GenesisState().NetworkNodes, 1)
}

func TestPhaseString(t *testing.T) {
	require.Equal(t, "network_bootstrapped", keeper.PhaseNetworkBootstrapped.String())
	require.Equal(t, "initialized", keeper.PhaseInitialized.String())
	require.Equal(t, "unknown", keeper.Phase(42).String())
}

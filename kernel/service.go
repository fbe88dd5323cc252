package kernel

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lexamoris/synthia/constants"
	"github.com/lexamoris/synthia/kernel/config"
	"github.com/lexamoris/synthia/kernel/keystore"
	"github.com/lexamoris/synthia/kernel/metrics"
	"github.com/lexamoris/synthia/kernel/p2p"
	"github.com/lexamoris/synthia/pinstore"
	"github.com/lexamoris/synthia/x/genesis/keeper"
	"github.com/lexamoris/synthia/x/genesis/types"
)

const shutdownTimeout = 10 * time.Second

// Service represents the genesis kernel service
// it wire up all the components together
type Service struct {
	cfg       config.Config
	logger    zerolog.Logger
	constants constants.Table
	policies  types.PolicyRegistry
	store     *pinstore.Store
	network   *p2p.Network
	privKey   *keystore.PrivKey
	sequencer *keeper.Sequencer
	validator *keeper.OperationValidator

	// http server
	hs *http.Server

	// metrics
	metrics *metrics.Metrics
}

func NewService(cfg config.Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	m := metrics.NewMetrics()
	table := constants.Default()
	policies := types.DefaultPolicyRegistry()

	var (
		network *p2p.Network
		privKey *keystore.PrivKey
	)
	if cfg.EnableP2P {
		p2pConfig, err := cfg.P2PConfig()
		if err != nil {
			return nil, err
		}
		kstore, err := keystore.NewFileKeyStore(cfg.RootPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create file key store,err: %w", err)
		}
		privKey, err = keystore.GetOrCreateKey(kstore, cfg.KeyName)
		if err != nil {
			return nil, fmt.Errorf("failed to get or create p2p key, err: %w", err)
		}
		network, err = p2p.NewNetwork(p2pConfig, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create p2p network, err: %w", err)
		}
	}

	db, err := pinstore.NewLevelDB(cfg.DBPath, cfg.CompactDBOnInit)
	if err != nil {
		return nil, fmt.Errorf("failed to create level db: %w", err)
	}
	storeOpts := []pinstore.Option{pinstore.WithMetrics(m)}
	if network != nil {
		storeOpts = append(storeOpts, pinstore.WithAnnouncer(network))
	}
	store, err := pinstore.NewStore(db, storeOpts...)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create pin store: %w", err)
	}

	seqOpts := []keeper.Option{
		keeper.WithMetrics(m),
		keeper.WithPinTimeout(cfg.PinTimeout),
	}
	if !cfg.AwaitPin {
		seqOpts = append(seqOpts, keeper.WithBackgroundPin())
	}
	sequencer, err := keeper.NewSequencer(table, policies, store, seqOpts...)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create genesis sequencer: %w", err)
	}
	validator, err := keeper.NewOperationValidator(policies, sequencer, m)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create operation validator: %w", err)
	}

	s := &Service{
		cfg:       cfg,
		logger:    log.With().Str("module", "kernel_service").Logger(),
		constants: table,
		policies:  policies,
		store:     store,
		network:   network,
		privKey:   privKey,
		sequencer: sequencer,
		validator: validator,
		metrics:   m,
	}
	s.hs = &http.Server{
		Addr:              cfg.HTTPListenAddress,
		Handler:           s.registerRoutes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s, nil
}

// Start starts the p2p network when enabled, runs the genesis bootstrap and
// serves the http api. The kernel refuses to serve if the bootstrap fails.
func (s *Service) Start(ctx context.Context) error {
	if s.network != nil {
		if err := s.network.Start(ctx, s.privKey); err != nil {
			return fmt.Errorf("failed to start p2p network: %w", err)
		}
		s.logger.Info().Str("listen_addr", s.network.GetListenAddr().String()).Msg("p2p network started")
	}

	state, err := s.sequencer.Initialize(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize genesis kernel: %w", err)
	}
	s.logger.Info().
		Str("network", constants.Network).
		Str("version", state.Version).
		Str("storage_address", state.StorageAddress).
		Int("nodes", len(state.NetworkNodes)).
		Msg("genesis kernel ready")

	ln, err := net.Listen("tcp", s.cfg.HTTPListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.HTTPListenAddress, err)
	}
	go func() {
		if err := s.hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("failed to start http server")
		}
	}()
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("http server started")
	return nil
}

// Sequencer returns the genesis sequencer.
func (s *Service) Sequencer() *keeper.Sequencer {
	return s.sequencer
}

// Validator returns the operation validator.
func (s *Service) Validator() *keeper.OperationValidator {
	return s.validator
}

// Stop stops the kernel service
func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.hs.Shutdown(ctx); err != nil {
		s.logger.Error().Err(err).Msg("failed to shutdown http server")
	} else {
		s.logger.Info().Msg("http server shutdown")
	}
	// a background pin still writes to the store
	if future := s.sequencer.PinResult(); future != nil {
		select {
		case <-future.Done():
		case <-ctx.Done():
			s.logger.Warn().Msg("pin still running at shutdown")
		}
	}
	if s.network != nil {
		if err := s.network.Stop(); err != nil {
			s.logger.Error().Err(err).Msg("failed to stop p2p network")
		} else {
			s.logger.Info().Msg("p2p network stopped")
		}
	}
	if err := s.store.Close(); err != nil {
		s.logger.Error().Err(err).Msg("failed to close leveldb")
	} else {
		s.logger.Info().Msg("leveldb closed")
	}
}

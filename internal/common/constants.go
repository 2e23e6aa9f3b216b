package common

// Flower CLI
const FLWR_EXECUTABLE = "flwr"
const FLWR_RUN_COMMAND = "run"
const FLWR_DEFAULT_APP_DIR = "."
const FLWR_DEFAULT_FEDERATION = "local-simulation"
const FLWR_RESULTS_JSON = "results.json"

// Run-config keys
const RUN_CONFIG_NUM_SERVER_ROUNDS = "num-server-rounds"
const RUN_CONFIG_SEED = "seed"
const RUN_CONFIG_FRACTION_FIT = "fraction-fit"
const RUN_CONFIG_DIRICHLET_ALPHA = "dirichlet-alpha"
const FEDERATION_CONFIG_NUM_SUPERNODES = "options.num-supernodes"

// Run statuses
const STATUS_OK = "ok"
const STATUS_FAILED = "failed"
const STATUS_TIMEOUT = "timeout"

const ERROR_TIMEOUT = "timeout"
const ERROR_CANCELED = "canceled"

// Sweep dimensions, in grid and column order
const DIM_NUM_CLIENTS = "num_clients"
const DIM_FRACTION_FIT = "fraction_fit"
const DIM_ALPHA = "alpha"
const DIM_SEED = "seed"

// Events
const RUN_FINISHED_EVENT_TYPE = "RunFinished"
const SWEEP_FINISHED_EVENT_TYPE = "SweepFinished"

// Placeholder for the final round when a log does not say which round a metric belongs to
const UNKNOWN_ROUND = -1

const TIMESTAMP_LAYOUT = "2006-01-02T15:04:05.000000"
const TIMESTAMP_LAYOUT_SECONDS = "2006-01-02T15:04:05"
const FILE_TIMESTAMP_LAYOUT = "20060102_150405"

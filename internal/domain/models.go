package domain

import (
	"time"
)

// ListSource identifies the sanctions list an entity was sourced from.
type ListSource string

// OFAC is currently the only supported list source.
const OFAC ListSource = "OFAC"

// MatchType distinguishes a byte-equal address hit from one discovered via
// graph traversal.
type MatchType string

const (
	MatchDirect   MatchType = "DIRECT"
	MatchIndirect MatchType = "INDIRECT"
)

// RiskLevel buckets a risk score into a category.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskMedium   RiskLevel = "MEDIUM"
	RiskHigh     RiskLevel = "HIGH"
	RiskCritical RiskLevel = "CRITICAL"
)

// Direction selects which side of a transaction's addresses to screen.
type Direction string

const (
	DirectionInputs  Direction = "inputs"
	DirectionOutputs Direction = "outputs"
	DirectionBoth    Direction = "both"
)

// SanctionEntity is one record on a sanctions list. Addresses and aliases
// are deduplicated and consolidated at index-build time.
type SanctionEntity struct {
	EntityID    string     `json:"entityId"`
	Name        string     `json:"name"`
	ListSource  ListSource `json:"listSource"`
	Addresses   []string   `json:"addresses"`
	Aliases     []string   `json:"aliases"`
	LastUpdated string     `json:"lastUpdated"`
	Active      bool       `json:"active"`
}

// SanctionMatch links a screened address to the entity that produced a hit.
type SanctionMatch struct {
	ListSource     ListSource `json:"listSource"`
	EntityName     string     `json:"entityName"`
	EntityID       string     `json:"entityId"`
	MatchType      MatchType  `json:"matchType"`
	Confidence     int        `json:"confidence"`
	MatchedAddress string     `json:"matchedAddress"`
}

// TxInput is one input of a normalized Bitcoin transaction.
type TxInput struct {
	PrevTxID  string   `json:"prevTxid"`
	PrevVout  int      `json:"prevVout"`
	Addresses []string `json:"addresses"`
	ValueSats int64    `json:"valueSats"`
}

// TxOutput is one output of a normalized Bitcoin transaction.
type TxOutput struct {
	Addresses    []string `json:"addresses"`
	ValueSats    int64    `json:"valueSats"`
	ScriptPubKey string   `json:"scriptPubKey,omitempty"`
}

// BitcoinTransaction is the indexer-agnostic, normalized shape the rest of
// the system consumes. BlockTime is zero for unconfirmed transactions.
type BitcoinTransaction struct {
	TxID        string     `json:"txid"`
	BlockHeight int64      `json:"blockHeight,omitempty"`
	BlockTime   int64      `json:"blockTime,omitempty"`
	Inputs      []TxInput  `json:"inputs"`
	Outputs     []TxOutput `json:"outputs"`
	FeeSats     int64      `json:"feeSats,omitempty"`
	SizeBytes   int        `json:"sizeBytes,omitempty"`
}

// PathNode is one sanctioned address discovered during a bounded walk.
type PathNode struct {
	Address          string `json:"address"`
	TxID             string `json:"txid"`
	Hop              int    `json:"hop"`
	ValueSats        int64  `json:"valueSats"`
	TimestampMillis  int64  `json:"timestampMs"`
	RiskContribution int    `json:"riskContribution"`
}

// PathAnalysis is the result of a bounded multi-hop walk anchored at a
// target address. Nodes are kept in discovery order.
type PathAnalysis struct {
	TargetAddress        string     `json:"targetAddress"`
	MaxHops              int        `json:"maxHops"`
	TotalNodesAnalyzed   int        `json:"totalNodesAnalyzed"`
	SanctionedNodesFound int        `json:"sanctionedNodesFound"`
	PathNodes            []PathNode `json:"pathNodes"`
	RiskPropagation      int        `json:"riskPropagation"`
	CachedAt             time.Time  `json:"cachedAt"`
}

// ScreeningResult is the reply for a single-address screen.
type ScreeningResult struct {
	Address          string          `json:"address"`
	RiskScore        int             `json:"riskScore"`
	RiskLevel        RiskLevel       `json:"riskLevel"`
	SanctionMatches  []SanctionMatch `json:"sanctionMatches"`
	PathAnalysis     *PathAnalysis   `json:"pathAnalysis,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
	Confidence       int             `json:"confidence"`
	ProcessingTimeMs int64           `json:"processingTimeMs"`
}

// TxScreeningResult is the reply for a transaction screen.
type TxScreeningResult struct {
	TxHash           string              `json:"txHash"`
	OverallRiskScore int                 `json:"overallRiskScore"`
	OverallRiskLevel RiskLevel           `json:"overallRiskLevel"`
	Confidence       int                 `json:"confidence"`
	SanctionMatches  []SanctionMatch     `json:"sanctionMatches"`
	AddressResults   []ScreeningResult   `json:"addressResults"`
	Transaction      *BitcoinTransaction `json:"transaction,omitempty"`
	Timestamp        time.Time           `json:"timestamp"`
	ProcessingTimeMs int64               `json:"processingTimeMs"`
}

// AuditEntry is one append-only record of a screening action. ContentHash
// lets a reader detect a tampered entry without a full hash-chain.
type AuditEntry struct {
	EntryID          string                 `json:"entryId"`
	Action           string                 `json:"action"`
	Subject          string                 `json:"subject"`
	TxHash           string                 `json:"txHash,omitempty"`
	Result           map[string]interface{} `json:"result,omitempty"`
	Timestamp        time.Time              `json:"timestamp"`
	CorrelationID    string                 `json:"correlationId"`
	ProcessingTimeMs int64                  `json:"processingTimeMs"`
	Success          bool                   `json:"success"`
	Error            string                 `json:"error,omitempty"`
	ContentHash      string                 `json:"contentHash"`
}

// SanctionsMetadata summarizes the currently loaded sanctions index.
type SanctionsMetadata struct {
	Source           string         `json:"source"`
	LastUpdated      string         `json:"lastUpdated"`
	Version          string         `json:"version"`
	TotalEntities    int            `json:"totalEntities"`
	Cryptocurrencies map[string]int `json:"cryptocurrencies"`
}

// AuditStats is the result of a best-effort statistics query over a window
// of day files.
type AuditStats struct {
	TotalLogs             int            `json:"totalLogs"`
	SuccessfulLogs        int            `json:"successfulLogs"`
	FailedLogs            int            `json:"failedLogs"`
	ActionCounts          map[string]int `json:"actionCounts"`
	AverageProcessingTime float64        `json:"averageProcessingTime"`
	DateRange             [2]string      `json:"dateRange"`
}

package aggregates

// WriteTxOwnership says who opens and commits the transaction behind an
// aggregate write.
type WriteTxOwnership string

const (
	// WriteTxOwnedByAggregate: the aggregate opens its own transaction;
	// callers must not wrap aggregate writes in another one.
	WriteTxOwnedByAggregate WriteTxOwnership = "aggregate_owned"
)

// ReadPolicy says which reads an aggregate exposes.
type ReadPolicy string

const (
	// ReadPolicyInvariantScoped: the aggregate reads only what its invariant
	// checks and snapshot views need. Broad listing/reporting queries stay on
	// the table repos.
	ReadPolicyInvariantScoped ReadPolicy = "invariant_scoped_reads"
)

// Contract pins down the transaction and read posture of one aggregate so
// service code does not have to guess.
type Contract struct {
	Name             string
	WriteTxOwnership WriteTxOwnership
	ReadPolicy       ReadPolicy
	Notes            string
}

// Aggregate is implemented by everything that honors a Contract.
type Aggregate interface {
	Contract() Contract
}

// RequiresAggregateOwnedTx reports whether callers must leave transaction
// control to the aggregate.
func (c Contract) RequiresAggregateOwnedTx() bool {
	return c.WriteTxOwnership == WriteTxOwnedByAggregate
}

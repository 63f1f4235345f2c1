package decisionForest

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// BranchingFunction maps an instance to the index of the branch it follows.
type BranchingFunction interface {
	// Branch returns the branch index for the instance.
	Branch(instance []float64) (int, error)
	// Arity is the number of branch indices the function can return.
	Arity() int
	// Column is the index of the feature the function tests.
	Column() int
	String() string
	Clone() BranchingFunction
}

// DiscreteBranching sends an instance down the branch holding its value of
// the tested feature. Values are kept in the order they were first seen
// among the instances the function was fit on.
type DiscreteBranching struct {
	Values []float64
	Col    int
	Name   string
}

// ContinuousBranching sends instances whose feature value is at least the
// threshold down branch 0 and all others down branch 1.
type ContinuousBranching struct {
	Threshold float64
	Col       int
	Name      string
}

func (db *DiscreteBranching) Branch(instance []float64) (int, error) {
	value := instance[db.Col]
	i := slices.Index(db.Values, value)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s=%g", ErrUnseenCategory, db.Name, value)
	}
	return i, nil
}

func (db *DiscreteBranching) Arity() int {
	return len(db.Values)
}

func (db *DiscreteBranching) Column() int {
	return db.Col
}

func (db *DiscreteBranching) String() string {
	values := make([]string, len(db.Values))
	for i, v := range db.Values {
		values[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprintf("%s={%s}", db.Name, strings.Join(values, ","))
}

func (db *DiscreteBranching) Clone() BranchingFunction {
	return &DiscreteBranching{Values: slices.Clone(db.Values), Col: db.Col, Name: db.Name}
}

func (cb *ContinuousBranching) Branch(instance []float64) (int, error) {
	if instance[cb.Col] >= cb.Threshold {
		return 0, nil
	}
	return 1, nil
}

func (cb *ContinuousBranching) Arity() int {
	return 2
}

func (cb *ContinuousBranching) Column() int {
	return cb.Col
}

func (cb *ContinuousBranching) String() string {
	return fmt.Sprintf("%s >= %g", cb.Name, math.Round(cb.Threshold*1000)/1000)
}

func (cb *ContinuousBranching) Clone() BranchingFunction {
	c := *cb
	return &c
}

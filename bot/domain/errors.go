package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRetrieval matches every *RetrievalError.
	ErrRetrieval = errors.New("catalog retrieval failed")
	// ErrPersistence matches every *PersistenceError.
	ErrPersistence = errors.New("order persistence failed")
)

// RetrievalError reports a failed catalog read.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

func (e *RetrievalError) Is(target error) bool { return target == ErrRetrieval }

// Code is logged as err_code.
func (e *RetrievalError) Code() string { return "RETRIEVAL_ERROR" }

// PersistenceError reports a failed order save.
type PersistenceError struct {
	LeadID string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("save order %s: %v", e.LeadID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Code() string { return "PERSISTENCE_ERROR" }

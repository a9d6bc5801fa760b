// Package predicate compiles and evaluates boolean filter expressions over
// stream descriptor fields.
//
// A predicate selects which discovered streams get recorded:
//
//	type='EEG'
//	type='EEG' and name='BioSemi'
//	(type='EEG' and name='BioSemi') or type='HR'
//	nominal_srate >= 250
//	not hostname contains 'test'
//
// Fields are the StreamInfo columns: uid, name, type, hostname, source_id,
// nominal_srate. String literals are single-quoted and matching is
// case-sensitive. Operators: = != < <= > >= contains; ordering operators
// apply to nominal_srate only. and/or/not combine conditions, with
// parentheses for grouping; and binds tighter than or.
//
// The empty predicate matches every stream.
package predicate

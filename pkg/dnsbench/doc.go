/*
Package dnsbench contains functionality for benchmarking qualified nameservers with plain DNS over UDP.
A benchmark is represented by the Benchmark struct that is used to set up the benchmark as desired
and then executed using Benchmark.Run. Each execution of Benchmark.Run returns Results holding, for
every benchmarked server, the outcome of every query of every run in the order it was issued.
Queries are interleaved across servers, every server is queried for a record before the benchmark
moves on to the next record.
*/
package dnsbench

/*
Package mobynet locates the network namespace of Docker containers, so that
address ranges can be swept from the network perspective of a container.
*/
package mobynet

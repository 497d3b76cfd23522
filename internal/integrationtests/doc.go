// Package integrationtests exercises the whole stack: definition files on
// disk are loaded, built and run by the application with real modules.
package integrationtests

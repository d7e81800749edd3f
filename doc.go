/*
 * Copyright 2024 The Datalayers SDK Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

/*
Package datalayers provides a lightweight client for executing SQLs on a
Datalayers server over the Arrow Flight SQL protocol.

# Client

Use Connect to create an authenticated client. TLS is enabled when a
certificate is configured:

	client, err := datalayers.Connect(ctx, &datalayers.Config{
		Host:     "127.0.0.1",
		Port:     8360,
		Username: "admin",
		Password: "public",
		TLSCert:  os.Getenv("TLS_CERT"),
	})
	if err != nil {
		return err
	}
	defer client.Close()

# Execute Statements

Execute returns the result as Arrow record batches. DDLs and DMLs return a
single batch holding the number of affected rows:

	result, err := client.Execute(ctx, "CREATE DATABASE demo")
	if err != nil {
		return err
	}
	defer result.Release()
	affected, err := result.AffectedRows()

# Prepared Statements

Prepare a statement once and bind a record batch per execution; each row of
the batch is a parameter set:

	stmt, err := client.Prepare(ctx, "SELECT * FROM demo.t WHERE sid = ?")
	if err != nil {
		return err
	}
	defer stmt.Close(ctx)
	result, err := stmt.Execute(ctx, binding)

# Errors

Errors are of type *Error and classified by Kind. Server messages may carry
internal details; FilterMessage keeps the part meant for humans.
*/
package datalayers
